package pipeline

import (
	"testing"

	"miniaevol/internal/config"
	"miniaevol/internal/genome"
	"miniaevol/internal/organism"
	"miniaevol/internal/target"
)

func flatGenome(t *testing.T, length int) *genome.Genome {
	t.Helper()
	g, err := genome.New(make([]byte, length))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestEvaluateOnFlatGenomeProducesNoProteins(t *testing.T) {
	g := flatGenome(t, 500)
	tun := config.DefaultTunables()
	curve := target.Build(tun.PhenotypeResolution, target.DefaultGaussians(), tun.YMin, tun.YMax)

	derived := Evaluate(g, curve, tun)
	if len(derived.Proteins) != 0 {
		t.Fatalf("expected no proteins from an all-zero genome, got %d", len(derived.Proteins))
	}
	if len(derived.Phenotype) != tun.PhenotypeResolution {
		t.Fatalf("phenotype length = %d, want %d", len(derived.Phenotype), tun.PhenotypeResolution)
	}
}

func TestEvaluatePhenotypeStaysInRange(t *testing.T) {
	bits := make([]byte, 2000)
	for i := range bits {
		bits[i] = byte((i * 7) % 2)
	}
	g, err := genome.New(bits)
	if err != nil {
		t.Fatal(err)
	}
	tun := config.DefaultTunables()
	curve := target.Build(tun.PhenotypeResolution, target.DefaultGaussians(), tun.YMin, tun.YMax)

	derived := Evaluate(g, curve, tun)
	for i, v := range derived.Phenotype {
		if v < 0 || v > 1 {
			t.Fatalf("phenotype[%d] = %f out of [0,1]", i, v)
		}
	}
	if derived.Fitness <= 0 || derived.Fitness > 1 {
		t.Fatalf("fitness = %f, want in (0,1]", derived.Fitness)
	}
}

func TestDiscoverFindsExactPromoterAndTerminator(t *testing.T) {
	b := make([]byte, 60)
	copy(b, genome.PromSeq[:])
	pattern := []byte{1, 0, 1, 1}
	termStart := 30
	for i, v := range pattern {
		b[termStart+i] = v
		b[termStart+9-i] = v
	}
	g, err := genome.New(b)
	if err != nil {
		t.Fatal(err)
	}
	promoters, terminators := discover(g)
	if len(promoters) == 0 || promoters[0].Position != 0 || promoters[0].Distance != 0 {
		t.Fatalf("expected exact promoter at position 0, got %+v", promoters)
	}
	found := false
	for _, term := range terminators {
		if term == termStart {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected terminator at %d, got %v", termStart, terminators)
	}
}

func TestFoldDuplicatesSumsExpressionAndKeepsOneValid(t *testing.T) {
	proteins := []organism.Protein{
		{Start: 10, Expression: 0.5, Valid: true},
		{Start: 10, Expression: 0.3, Valid: true},
		{Start: 20, Expression: 1.0, Valid: true},
	}
	got := foldDuplicates(proteins)
	validCount := 0
	for _, p := range got {
		if p.Valid {
			validCount++
			if p.Start == 10 && p.Expression != 0.8 {
				t.Fatalf("expected folded expression 0.8, got %f", p.Expression)
			}
		}
	}
	if validCount != 2 {
		t.Fatalf("expected 2 valid proteins after folding, got %d", validCount)
	}
}

func TestTrapezoidalL1ZeroWhenPhenotypeMatchesTarget(t *testing.T) {
	delta := make([]float64, 300)
	if got := trapezoidalL1(delta); got != 0 {
		t.Fatalf("expected zero metaerror for zero delta, got %f", got)
	}
}

// TestTranslateDecodesExactlyThreeCodonsBeforeStop builds a gene whose
// coding region is exactly [M1, W1, H1] followed immediately by a stop
// codon, and checks the decoded protein against the closed-form M/W/H the
// Gray-code accumulation produces for a single 1-bit per symbol: each
// attribute saturates at its tunable max.
func TestTranslateDecodesExactlyThreeCodonsBeforeStop(t *testing.T) {
	const l = 60
	b := make([]byte, l)

	const codingStart = 35 // rna.Begin(0) + PromSize(22) + offset(0) + 13
	copy(b[codingStart:], []byte{0, 0, 1}) // M1
	copy(b[codingStart+3:], []byte{0, 1, 1}) // W1
	copy(b[codingStart+6:], []byte{1, 0, 1}) // H1
	copy(b[codingStart+9:], []byte{1, 1, 1}) // stop

	g, err := genome.New(b)
	if err != nil {
		t.Fatal(err)
	}

	rna := organism.RNA{Begin: 0, Expression: 1, Length: 25}
	tun := config.DefaultTunables()

	p, ok := translate(g, rna, 22, tun)
	if !ok {
		t.Fatalf("expected a valid protein")
	}
	if p.Length != 3 {
		t.Fatalf("expected 3 decoded codons, got %d", p.Length)
	}
	if p.M != tun.XMax {
		t.Fatalf("m = %f, want %f (X_MAX)", p.M, tun.XMax)
	}
	if p.W != tun.WMax {
		t.Fatalf("w = %f, want %f (W_MAX)", p.W, tun.WMax)
	}
	if p.H != tun.HMax {
		t.Fatalf("h = %f, want %f (H_MAX)", p.H, tun.HMax)
	}
	if !p.Functional {
		t.Fatalf("expected protein to be functional")
	}
}

// TestTranslateDiscardsImmediateStopGene covers the off-by-one regression:
// a stop codon right at codingStart gives a true protein length of 2, which
// must be discarded rather than kept as a degenerate length-3 protein.
func TestTranslateDiscardsImmediateStopGene(t *testing.T) {
	const l = 60
	b := make([]byte, l)
	const codingStart = 35
	copy(b[codingStart:], []byte{1, 1, 1}) // stop, immediately

	g, err := genome.New(b)
	if err != nil {
		t.Fatal(err)
	}
	rna := organism.RNA{Begin: 0, Expression: 1, Length: 25}
	tun := config.DefaultTunables()

	if _, ok := translate(g, rna, 22, tun); ok {
		t.Fatalf("expected immediate-stop gene to be discarded")
	}
}
