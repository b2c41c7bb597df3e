package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// Uploader is satisfied by storage.S3Uploader.
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

// S3Mirror saves through an inner store and then copies the document to object
// storage. A failed upload is logged; the local checkpoint stays authoritative.
type S3Mirror struct {
	inner    Store
	uploader Uploader
	key      string
}

func NewS3Mirror(inner Store, uploader Uploader, key string) *S3Mirror {
	return &S3Mirror{inner: inner, uploader: uploader, key: key}
}

func (m *S3Mirror) Load(ctx context.Context) (*Progress, error) {
	return m.inner.Load(ctx)
}

func (m *S3Mirror) Save(ctx context.Context, p *Progress) error {
	if err := m.inner.Save(ctx, p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := m.uploader.Upload(ctx, m.key, bytes.NewReader(data), "application/json"); err != nil {
		log.Printf("Warning: checkpoint upload to %s failed: %v", m.key, err)
	}
	return nil
}
