// Package pipeline orchestrates the per-organism evaluation sequence:
// promoter/terminator discovery, RNA extraction, gene discovery,
// translation, duplicate-gene folding, phenotype synthesis, and fitness.
package pipeline

import (
	"math"
	"sort"

	"miniaevol/internal/config"
	"miniaevol/internal/genome"
	"miniaevol/internal/organism"
)

// BaselineMetaError is the trapezoidal-L1 distance between a blank
// (all-zero) phenotype and target. A freshly drawn genome is only worth
// keeping as a founder if its metaerror beats this baseline.
func BaselineMetaError(target []float64) float64 {
	return trapezoidalL1(target)
}

// Evaluate runs the full-scan pipeline over g and returns the derived
// state an Organism carries. It never mutates g.
func Evaluate(g *genome.Genome, target []float64, tun config.Tunables) *organism.DerivedState {
	promoters, terminators := discover(g)
	rnas := extractRNAs(g, promoters, terminators)

	var allProteins []organism.Protein
	for i := range rnas {
		findGenes(g, &rnas[i])
		for _, s := range rnas[i].GeneStarts {
			if p, ok := translate(g, rnas[i], s, tun); ok {
				allProteins = append(allProteins, p)
			}
		}
	}

	proteins := foldDuplicates(allProteins)
	activ, inhib := synthesize(proteins, tun)
	phenotype := combine(activ, inhib)
	delta := make([]float64, len(phenotype))
	for i := range phenotype {
		delta[i] = phenotype[i] - target[i]
	}
	metaError := trapezoidalL1(delta)
	fitness := math.Exp(-tun.SelectionPressure * metaError)

	return &organism.DerivedState{
		Promoters:   promoters,
		Terminators: terminators,
		RNAs:        rnas,
		Proteins:    proteins,
		Phenotype:   phenotype,
		Delta:       delta,
		MetaError:   metaError,
		Fitness:     fitness,
	}
}

// discover performs the full-scan promoter/terminator search, guarded by
// an outer check that a genome shorter than PromSize has no promoter
// window to scan at all.
func discover(g *genome.Genome) ([]organism.PromoterSite, []int) {
	l := g.Len()
	if l < genome.PromSize {
		return nil, nil
	}
	var promoters []organism.PromoterSite
	var terminators []int
	for p := 0; p < l; p++ {
		if d := g.PromoterDistance(p); d <= 4 {
			promoters = append(promoters, organism.PromoterSite{Position: p, Distance: d})
		}
		if g.TerminatorDistance(p) == 4 {
			terminators = append(terminators, p)
		}
	}
	return promoters, terminators
}

// extractRNAs builds the RNA list by walking from each promoter's
// transcription start to the nearest terminator, accelerated by a
// lower-bound search over the sorted terminator set.
func extractRNAs(g *genome.Genome, promoters []organism.PromoterSite, terminators []int) []organism.RNA {
	l := g.Len()
	rnas := make([]organism.RNA, 0, len(promoters))
	for _, pr := range promoters {
		start := mod(pr.Position+genome.PromSize, l)
		t, found := firstTerminatorAtOrAfter(terminators, start, l)
		if !found {
			continue
		}
		end := mod(t+genome.TermSize, l)
		raw := mod(l-pr.Position+end, l)
		effective := raw - 21
		if effective <= 0 {
			continue
		}
		rnas = append(rnas, organism.RNA{
			Begin:      pr.Position,
			End:        end,
			Expression: 1 - float64(pr.Distance)/5,
			Length:     effective,
		})
	}
	return rnas
}

// firstTerminatorAtOrAfter returns the first terminator at or after start,
// circularly (lower-bound then wrap), and whether any terminator exists.
func firstTerminatorAtOrAfter(terminators []int, start, l int) (int, bool) {
	if len(terminators) == 0 {
		return 0, false
	}
	idx := sort.SearchInts(terminators, start)
	if idx < len(terminators) {
		return terminators[idx], true
	}
	return terminators[0], true
}

// findGenes walks an RNA's transcribed region looking for Shine-Dalgarno +
// start-codon sites. RNAs with an effective length shorter than PromSize
// are skipped; there's no room for a gene.
func findGenes(g *genome.Genome, rna *organism.RNA) {
	if rna.Length < genome.PromSize {
		return
	}
	l := g.Len()
	start := mod(rna.Begin+genome.PromSize, l)
	steps := mod(rna.End-start, l) + 1
	for k := 0; k < steps; k++ {
		c := mod(start+k, l)
		if g.ShineDalStart(c) {
			rna.GeneStarts = append(rna.GeneStarts, c)
		}
	}
}

// translate decodes a gene start into a protein. It returns ok=false when
// the protein is degenerate and must be silently discarded.
func translate(g *genome.Genome, rna organism.RNA, start int, tun config.Tunables) (organism.Protein, bool) {
	l := g.Len()
	transcriptionStart := mod(rna.Begin+genome.PromSize, l)
	offset := mod(start-transcriptionStart, l)
	codingStart := mod(start+13, l)
	budget := rna.Length - offset - 13
	if budget < 3 {
		return organism.Protein{}, false
	}

	cur := codingStart
	consumed := 0
	var stopEnd int
	found := false
	for consumed+3 <= budget {
		if g.ProteinStop(cur) {
			stopEnd = mod(cur+2, l)
			found = true
			break
		}
		consumed += 3
		cur = mod(cur+3, l)
	}
	if !found {
		return organism.Protein{}, false
	}

	length := mod(stopEnd-codingStart, l)
	if length < 3 {
		return organism.Protein{}, false
	}
	numCodons := length / 3
	decoded := numCodons
	if decoded > 64 {
		decoded = 64
	}

	m, w, h, functional := decode(g, codingStart, numCodons, l, tun)
	return organism.Protein{
		Start:      start,
		Stop:       stopEnd,
		Length:     decoded,
		Expression: rna.Expression,
		M:          m,
		W:          w,
		H:          h,
		Functional: functional,
		Valid:      true,
	}, true
}

// decode implements the Gray-coded codon accumulation into M/W/H, reading
// numCodons codons (at most 64) starting at codingStart. The stop codon itself
// is not part of the coding region and must never be decoded.
func decode(g *genome.Genome, codingStart, numCodons, l int, tun config.Tunables) (m, w, h float64, functional bool) {
	var accM, accW, accH float64
	var nM, nW, nH int
	var gM, gH, gW byte

	cur := codingStart
	for codonIdx := 0; codonIdx < numCodons && codonIdx < 64; codonIdx++ {
		c := g.CodonAt(cur)
		switch c {
		case genome.CodonM0, genome.CodonM1:
			if c == genome.CodonM1 {
				gM ^= 1
			}
			accM = 2*accM + float64(gM)
			nM++
		case genome.CodonW0, genome.CodonW1:
			if c == genome.CodonW1 {
				gW ^= 1
			}
			accW = 2*accW + float64(gW)
			nW++
		case genome.CodonH0, genome.CodonH1, genome.CodonStart:
			if c == genome.CodonH1 {
				gH ^= 1
			}
			accH = 2*accH + float64(gH)
			nH++
		}
		cur = mod(cur+3, l)
	}

	m = 0.5
	if nM > 0 {
		m = accM / (pow2(nM) - 1)
	}
	w = 0.0
	if nW > 0 {
		w = accW / (pow2(nW) - 1)
	}
	h = 0.5
	if nH > 0 {
		h = accH / (pow2(nH) - 1)
	}

	m = (tun.XMax-tun.XMin)*m + tun.XMin
	w = (tun.WMax-tun.WMin)*w + tun.WMin
	h = (tun.HMax-tun.HMin)*h + tun.HMin

	functional = nM > 0 && nW > 0 && nH > 0 && w != 0 && h != 0
	return m, w, h, functional
}

func pow2(n int) float64 {
	return float64(int64(1) << uint(n))
}

// foldDuplicates groups proteins by start position, summing expression of
// siblings into one representative and marking the rest invalid.
func foldDuplicates(proteins []organism.Protein) []organism.Protein {
	byStart := make(map[int]int, len(proteins)) // start -> index into result
	result := make([]organism.Protein, 0, len(proteins))
	for _, p := range proteins {
		if idx, ok := byStart[p.Start]; ok {
			result[idx].Expression += p.Expression
			p.Valid = false
			result = append(result, p)
			continue
		}
		byStart[p.Start] = len(result)
		result = append(result, p)
	}
	return result
}

// synthesize builds the activation/inhibition triangle-kernel vectors.
func synthesize(proteins []organism.Protein, tun config.Tunables) (activ, inhib []float64) {
	n := tun.PhenotypeResolution
	activ = make([]float64, n)
	inhib = make([]float64, n)

	for _, p := range proteins {
		if !p.Valid || !p.Functional {
			continue
		}
		if math.Abs(p.W) < 1e-15 || math.Abs(p.H) < 1e-15 {
			continue
		}
		x0 := p.M - p.W
		x1 := p.M
		x2 := p.M + p.W
		ix0 := clampIdx(int(math.Floor(float64(n)*x0)), n)
		ix1 := clampIdx(int(math.Floor(float64(n)*x1)), n)
		ix2 := clampIdx(int(math.Floor(float64(n)*x2)), n)

		hStar := p.H * p.Expression
		dest := activ
		if p.H < 0 {
			dest = inhib
		}

		if ix1 != ix0 {
			span := ix1 - ix0
			for k := 1; k < span; k++ {
				dest[ix0+k] += (hStar / float64(span)) * float64(k)
			}
		}
		dest[ix1] += hStar
		if ix2 != ix1 {
			span := ix2 - ix1
			for k := 1; k < span; k++ {
				dest[ix1+k] += hStar - (hStar/float64(span))*float64(k)
			}
		}
	}

	for i := range activ {
		if activ[i] > 1 {
			activ[i] = 1
		}
	}
	for i := range inhib {
		if inhib[i] < -1 {
			inhib[i] = -1
		}
	}
	return activ, inhib
}

func combine(activ, inhib []float64) []float64 {
	phenotype := make([]float64, len(activ))
	for i := range phenotype {
		phenotype[i] = clamp01(activ[i] + inhib[i])
	}
	return phenotype
}

// trapezoidalL1 computes the trapezoidal-rule L1 distance between the
// phenotype and target curve, normalized by sample count.
func trapezoidalL1(delta []float64) float64 {
	n := len(delta)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n-1; i++ {
		sum += math.Abs(delta[i]) + math.Abs(delta[i+1])
	}
	return sum / float64(2 * n)
}

func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n-1 {
		return n - 1
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mod(v, l int) int {
	v %= l
	if v < 0 {
		v += l
	}
	return v
}
