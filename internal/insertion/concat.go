/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package insertion

import (
	"fmt"
	"io"
	"os"
)

// concatFiles writes the byte concatenation of inputs to outPath. All ad
// material is pre-encoded with matching parameters, so frame-level
// concatenation is sufficient; the duration check in assemble catches a bad
// build. The artifact is written to a temp file and renamed so the playout
// system never sees a partial file.
func concatFiles(outPath string, inputs []string) error {
	if outPath == "" {
		return fmt.Errorf("no output file configured")
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files")
	}

	tmpPath := outPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmpPath, err)
	}

	for _, path := range inputs {
		if err := appendFile(out, path); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename to %s: %w", outPath, err)
	}
	return nil
}

func appendFile(out *os.File, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", path, err)
	}
	return nil
}
