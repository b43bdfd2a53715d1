package store

import "context"

func (s *Store) GetMeta(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.read(ctx, "get metadata", func(ctx context.Context, tx *Tx) error {
		var err error
		v, err = tx.Metadata.Get(ctx, key)
		return err
	})
	return v, err
}

func (s *Store) SetMeta(ctx context.Context, key string, value []byte) error {
	return s.WithTx(ctx, "set metadata", func(ctx context.Context, tx *Tx) error {
		return tx.Metadata.Set(ctx, key, value)
	})
}

func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	return s.WithTx(ctx, "delete metadata", func(ctx context.Context, tx *Tx) error {
		return tx.Metadata.Delete(ctx, key)
	})
}

func (s *Store) ListMeta(ctx context.Context, prefix string) (map[string][]byte, error) {
	var m map[string][]byte
	err := s.read(ctx, "list metadata", func(ctx context.Context, tx *Tx) error {
		var err error
		m, err = tx.Metadata.List(ctx, prefix)
		return err
	})
	return m, err
}
