package ingest

// Pipeline runs one message through tokenization and filtering:
// text → tokens → surviving tokens
type Pipeline struct {
	tokenizer *Tokenizer
	filter    *Filter
}

// NewPipeline creates an ingestion pipeline with the given components
func NewPipeline(tokenizer *Tokenizer, filter *Filter) *Pipeline {
	return &Pipeline{
		tokenizer: tokenizer,
		filter:    filter,
	}
}

// Processed is one message after tokenization and filtering.
type Processed struct {
	Raw      []string // every token, in order
	Kept     []string // surviving tokens, in order
	RawIndex []int    // RawIndex[i] is the position of Kept[i] in Raw
}

// Process runs a message through the pipeline
func (p *Pipeline) Process(text string) Processed {
	raw := p.tokenizer.Tokenize(text)

	out := Processed{Raw: raw}
	for i, tok := range raw {
		if !p.filter.Keep(tok) {
			continue
		}
		out.Kept = append(out.Kept, tok)
		out.RawIndex = append(out.RawIndex, i)
	}
	return out
}
