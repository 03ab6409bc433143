package extract

// Normalizer turns a raw message body into normalized plain text.
// Implementations must be deterministic and free of side effects so they can
// run concurrently across messages.
type Normalizer interface {
	Normalize(raw RawBody) string
}

// DefaultNormalizer uses Normalize: HTML is walked with the x/net/html
// parser, plain text passes straight to NormalizeText.
type DefaultNormalizer struct{}

func (DefaultNormalizer) Normalize(raw RawBody) string {
	return Normalize(raw)
}
