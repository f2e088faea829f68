package cte

import (
	"fmt"
	"path/filepath"

	"github.com/iowarp/context-runtime/pkg/aio"
)

func writeChunk(te *targetEntry, fileName string, data []byte, off int64) error {
	h, err := te.backend.Open(filepath.Join(te.dir, fileName), aio.ReadWrite|aio.Create)
	if err != nil {
		return err
	}
	defer h.Close()

	tok, err := h.Write(data, off)
	if err != nil {
		return err
	}
	res, ok := h.IsComplete(tok)
	if !ok {
		return fmt.Errorf("cte: write token never resolved")
	}
	return res.Err
}

func readChunk(te *targetEntry, fileName string, buf []byte, off int64) error {
	h, err := te.backend.Open(filepath.Join(te.dir, fileName), aio.ReadOnly)
	if err != nil {
		return err
	}
	defer h.Close()

	tok, err := h.Read(buf, off)
	if err != nil {
		return err
	}
	res, ok := h.IsComplete(tok)
	if !ok {
		return fmt.Errorf("cte: read token never resolved")
	}
	return res.Err
}
