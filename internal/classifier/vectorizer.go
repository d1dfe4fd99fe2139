package classifier

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches runs of two or more word characters, the default
// token pattern the vectorizer artifacts are fitted with.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorizerArtifact is the serialized form of a fitted TF-IDF vectorizer
type VectorizerArtifact struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	Lowercase   bool           `json:"lowercase"`
	Binary      bool           `json:"binary"`
	SublinearTF bool           `json:"sublinear_tf"`
	Norm        string         `json:"norm"`
	StopWords   []string       `json:"stop_words,omitempty"`
}

// Vectorizer maps documents to fixed-length TF-IDF feature vectors.
// It is read-only after construction.
type Vectorizer struct {
	vocab     map[string]int
	idf       []float64
	minN      int
	maxN      int
	lowercase bool
	binary    bool
	sublinear bool
	norm      string
	stop      map[string]struct{}
}

func NewVectorizer(a VectorizerArtifact) (*Vectorizer, error) {
	if len(a.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer has empty vocabulary")
	}
	if a.IDF != nil && len(a.IDF) != len(a.Vocabulary) {
		return nil, fmt.Errorf("vectorizer idf has %d entries, vocabulary has %d", len(a.IDF), len(a.Vocabulary))
	}
	for term, idx := range a.Vocabulary {
		if idx < 0 || idx >= len(a.Vocabulary) {
			return nil, fmt.Errorf("vocabulary term %q has index %d out of range", term, idx)
		}
	}

	minN, maxN := a.NgramRange[0], a.NgramRange[1]
	if minN == 0 && maxN == 0 {
		minN, maxN = 1, 1
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("invalid ngram range [%d, %d]", minN, maxN)
	}

	switch a.Norm {
	case "", "l1", "l2", "none":
	default:
		return nil, fmt.Errorf("unsupported norm %q", a.Norm)
	}

	stop := make(map[string]struct{}, len(a.StopWords))
	for _, w := range a.StopWords {
		stop[w] = struct{}{}
	}

	return &Vectorizer{
		vocab:     a.Vocabulary,
		idf:       a.IDF,
		minN:      minN,
		maxN:      maxN,
		lowercase: a.Lowercase,
		binary:    a.Binary,
		sublinear: a.SublinearTF,
		norm:      a.Norm,
		stop:      stop,
	}, nil
}

// Dim returns the feature vector length
func (v *Vectorizer) Dim() int {
	return len(v.vocab)
}

// Transform converts a batch of documents into feature vectors.
func (v *Vectorizer) Transform(docs []string) ([][]float64, error) {
	out := make([][]float64, len(docs))
	for i, doc := range docs {
		vec, err := v.transformOne(doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func (v *Vectorizer) transformOne(doc string) ([]float64, error) {
	vec := make([]float64, len(v.vocab))
	for _, term := range v.analyze(doc) {
		if idx, ok := v.vocab[term]; ok {
			vec[idx]++
		}
	}

	for i, tf := range vec {
		if tf == 0 {
			continue
		}
		if v.binary {
			tf = 1
		}
		if v.sublinear {
			tf = 1 + math.Log(tf)
		}
		if v.idf != nil {
			tf *= v.idf[i]
		}
		vec[i] = tf
	}

	switch v.norm {
	case "", "l2":
		var sum float64
		for _, x := range vec {
			sum += x * x
		}
		normalizeBy(vec, math.Sqrt(sum))
	case "l1":
		var sum float64
		for _, x := range vec {
			sum += math.Abs(x)
		}
		normalizeBy(vec, sum)
	}

	for i, x := range vec {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: feature %d is %v", ErrNumerical, i, x)
		}
	}
	return vec, nil
}

// analyze produces the n-gram terms of a document
func (v *Vectorizer) analyze(doc string) []string {
	if v.lowercase {
		doc = strings.ToLower(doc)
	}
	raw := tokenPattern.FindAllString(doc, -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := v.stop[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}

	var terms []string
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func normalizeBy(vec []float64, norm float64) {
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] /= norm
	}
}
