package modelbuf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hupe1980/modelbuf/blobstore"
	"github.com/hupe1980/modelbuf/container"
	"github.com/hupe1980/modelbuf/flatbuf"
	"github.com/hupe1980/modelbuf/internal/mmap"
	"github.com/hupe1980/modelbuf/model"
	"github.com/hupe1980/modelbuf/verify"
)

// OpenModel interprets buf as a bare model buffer. The buffer is verified
// first unless WithSkipVerify is given; the returned view borrows buf.
func OpenModel(buf []byte, optFns ...Option) (model.Model, error) {
	opts := applyOptions(optFns)
	if err := verifyBuffer(context.Background(), &opts, "buffer", buf); err != nil {
		return model.Model{}, err
	}
	return model.RootModel(buf)
}

// ModelFile is an opened model together with the resource backing its
// buffer. Close releases the mapping; no view derived from the model may be
// used afterwards.
type ModelFile struct {
	// Model is the lazy root view.
	Model model.Model

	buf     []byte
	mapping *mmap.Mapping
}

// Bytes returns the raw model buffer.
func (f *ModelFile) Bytes() []byte { return f.buf }

// Close releases the backing mapping, if any. It is idempotent.
func (f *ModelFile) Close() error {
	if f.mapping == nil {
		return nil
	}
	return f.mapping.Close()
}

// OpenModelFile opens a model from disk. Container-enveloped files are
// decoded (and checksum-verified) into memory; bare buffers stay memory-
// mapped and are read lazily straight from the page cache.
func OpenModelFile(path string, optFns ...Option) (*ModelFile, error) {
	opts := applyOptions(optFns)
	ctx := context.Background()

	m, err := mmap.Open(path)
	if err != nil {
		opts.logger.LogOpen(ctx, path, 0, err)
		return nil, err
	}
	data := m.Bytes()

	switch {
	case len(data) >= len(container.Magic) && string(data[:len(container.Magic)]) == container.Magic:
		payload, err := container.Decode(bytes.NewReader(data))
		_ = m.Close()
		if err != nil {
			opts.logger.LogOpen(ctx, path, 0, err)
			return nil, err
		}
		return finishOpen(ctx, &opts, path, payload, nil)

	case flatbuf.HasIdentifier(data, model.FileIdentifier):
		// Lazy reads jump around the buffer; tell the kernel.
		_ = m.Advise(mmap.AccessRandom)
		return finishOpen(ctx, &opts, path, data, m)

	default:
		_ = m.Close()
		opts.logger.LogOpen(ctx, path, 0, ErrNotAModelFile)
		return nil, fmt.Errorf("%w: %s", ErrNotAModelFile, path)
	}
}

// OpenModelFromStore fetches a blob and opens it as a model. Both
// container-enveloped and bare blobs are accepted.
func OpenModelFromStore(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (*ModelFile, error) {
	opts := applyOptions(optFns)

	blob, err := store.Open(ctx, name)
	if err != nil {
		opts.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		opts.logger.LogOpen(ctx, name, 0, err)
		return nil, err
	}

	if len(data) >= len(container.Magic) && string(data[:len(container.Magic)]) == container.Magic {
		payload, err := container.Decode(bytes.NewReader(data))
		if err != nil {
			opts.logger.LogOpen(ctx, name, 0, err)
			return nil, err
		}
		data = payload
	}
	return finishOpen(ctx, &opts, name, data, nil)
}

// SaveModelFile serializes the tree and writes it atomically as a
// container-enveloped file.
func SaveModelFile(path string, t *model.ModelT, optFns ...Option) error {
	opts := applyOptions(optFns)
	ctx := context.Background()

	if t == nil {
		return ErrNilTree
	}

	b := flatbuf.NewBuilder(1024)
	buf, err := t.Build(b)
	if err != nil {
		opts.logger.LogSave(ctx, path, 0, err)
		return err
	}
	if err := container.SaveToFile(path, buf, opts.saveOptions...); err != nil {
		opts.logger.LogSave(ctx, path, len(buf), err)
		return err
	}
	opts.logger.LogSave(ctx, path, len(buf), nil)
	return nil
}

// SaveModelToStore serializes the tree into an envelope and stores it under
// name.
func SaveModelToStore(ctx context.Context, store blobstore.Store, name string, t *model.ModelT, optFns ...Option) error {
	opts := applyOptions(optFns)

	if t == nil {
		return ErrNilTree
	}

	b := flatbuf.NewBuilder(1024)
	buf, err := t.Build(b)
	if err != nil {
		opts.logger.LogSave(ctx, name, 0, err)
		return err
	}

	var envelope bytes.Buffer
	if err := container.Encode(&envelope, buf, opts.saveOptions...); err != nil {
		opts.logger.LogSave(ctx, name, len(buf), err)
		return err
	}
	if err := store.Put(ctx, name, envelope.Bytes()); err != nil {
		opts.logger.LogSave(ctx, name, len(buf), err)
		return err
	}
	opts.logger.LogSave(ctx, name, len(buf), nil)
	return nil
}

func finishOpen(ctx context.Context, opts *options, source string, buf []byte, mapping *mmap.Mapping) (*ModelFile, error) {
	if err := verifyBuffer(ctx, opts, source, buf); err != nil {
		if mapping != nil {
			_ = mapping.Close()
		}
		return nil, err
	}

	m, err := model.RootModel(buf)
	if err != nil {
		if mapping != nil {
			_ = mapping.Close()
		}
		opts.logger.LogOpen(ctx, source, len(buf), err)
		return nil, err
	}
	opts.logger.LogOpen(ctx, source, len(buf), nil)
	return &ModelFile{Model: m, buf: buf, mapping: mapping}, nil
}

func verifyBuffer(ctx context.Context, opts *options, source string, buf []byte) error {
	if opts.skipVerify {
		return nil
	}
	vopts := append([]func(*verify.Options){
		verify.WithIdentifier(model.FileIdentifier),
	}, opts.verifyOptions...)

	err := verify.Verify(model.Registry(), model.TypeModel, buf, vopts...)
	opts.logger.LogVerify(ctx, model.TypeModel, len(buf), err)
	if err != nil {
		return &ErrVerify{Source: source, cause: err}
	}
	return nil
}
