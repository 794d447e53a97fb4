package theory

// region is a fixed chromosome interval associated with a gene
// symbol. The table below is an immutable compile-time gene->region
// mapping; a deployment reloads it only by restarting the process,
// or by overriding it at startup from a YAML gene-region table file.
type region struct {
	Chromosome string
	Start      int
	End        int
}

var geneRegions = map[string][]region{
	"SHANK3":  {{"22", 51113070, 51171640}},
	"NRXN1":   {{"2", 49918958, 51032089}},
	"SYNGAP1": {{"6", 33387797, 33410839}},
	"BRCA1":   {{"17", 43044295, 43125483}},
	"BRCA2":   {{"13", 32315474, 32400266}},
}

// geneHits counts how many variants fall inside any region named by
// any of the given gene symbols. table is normally the compile-time
// geneRegions default; a deployment may override it at startup from
// the YAML gene-region table file.
func geneHits(genes []string, variants []variantLocus, table map[string][]region) int {
	if len(genes) == 0 {
		return 0
	}
	hits := 0
	for _, v := range variants {
		for _, gene := range genes {
			for _, r := range table[gene] {
				if v.Chromosome == r.Chromosome && v.Position >= r.Start && v.Position <= r.End {
					hits++
					break
				}
			}
		}
	}
	return hits
}

// variantLocus is the minimal shape execute needs from a parsed VCF
// variant; it decouples the theory engine from pkg/genomic's full
// Variant type.
type variantLocus struct {
	Chromosome string
	Position   int
}

// DefaultGeneRegions returns the compile-time gene->region table in
// its exported GeneRegion shape, for callers (the gene catalog
// surfaced over HTTP, or a composition root building a YAML override
// on top of the default) that need it without reaching into theory's
// unexported region type.
func DefaultGeneRegions() map[string][]GeneRegion {
	out := make(map[string][]GeneRegion, len(geneRegions))
	for gene, regions := range geneRegions {
		converted := make([]GeneRegion, len(regions))
		for i, r := range regions {
			converted[i] = GeneRegion{Chromosome: r.Chromosome, Start: r.Start, End: r.End}
		}
		out[gene] = converted
	}
	return out
}
