package verify

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/modelbuf/schema"
)

// VerifyAll verifies a batch of independent buffers concurrently, each
// against the same root type. It stops at the first failure and reports it
// with the buffer's index. limit caps the number of concurrent workers;
// limit <= 0 means one worker per CPU.
func VerifyAll(ctx context.Context, reg *schema.Registry, rootType string, buffers [][]byte, limit int, optFns ...func(*Options)) error {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, buf := range buffers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := Verify(reg, rootType, buf, optFns...); err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
