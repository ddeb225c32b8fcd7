package envelope

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-device-sdk/did"
	"github.com/pilacorp/go-device-sdk/jose"
)

// BuildSubmissions signs every reading with privateKey and wraps each token
// in a submission envelope. Readings are signed concurrently; the result keeps
// the input order. The first failure cancels the remaining work.
func BuildSubmissions(ctx context.Context, signer *jose.Signer, id *did.Identity, privateKey []byte, readings [][]byte) ([]*Envelope, error) {
	if signer == nil {
		return nil, fmt.Errorf("signer is nil")
	}

	out := make([]*Envelope, len(readings))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, reading := range readings {
		i, reading := i, reading
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			token, err := signer.Sign(jose.ES256, reading, privateKey)
			if err != nil {
				return fmt.Errorf("reading %d: %w", i, err)
			}
			env, err := NewSubmission(id, token)
			if err != nil {
				return fmt.Errorf("reading %d: %w", i, err)
			}
			out[i] = env
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
