package validator

import (
	"github.com/bsv-blockchain/utxogate/signature"
)

type Options struct {
	concurrency int
	verifier    signature.Verifier
}

// Option is a function that sets some option on the Options struct
type Option func(*Options)

func NewDefaultOptions() *Options {
	return &Options{}
}

func ProcessOptions(opts ...Option) *Options {
	options := NewDefaultOptions()
	for _, o := range opts {
		o(options)
	}

	return options
}

// WithConcurrency limits how many transactions of a batch are validated at once,
// overriding validator_concurrency.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.concurrency = n
	}
}

// WithVerifier replaces the verifier built from settings.
func WithVerifier(verifier signature.Verifier) Option {
	return func(o *Options) {
		o.verifier = verifier
	}
}
