package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Target is the pair of temporary record files for one session.
type Target struct {
	BinPath string
	CSVPath string

	bin *os.File
	csv *os.File
}

// tempName matches the temp_DD_MM_YYYY_HH_MM_SS naming of recorded sessions.
func tempName(t time.Time) string {
	return "temp_" + t.Format("02_01_2006_15_04_05")
}

// createTarget truncates or creates both files in dir.
func createTarget(dir string, now time.Time) (*Target, error) {
	base := filepath.Join(dir, tempName(now))
	t := &Target{BinPath: base + ".bin", CSVPath: base + ".csv"}

	var err error
	t.bin, err = os.Create(t.BinPath)
	if err != nil {
		return nil, fmt.Errorf("create record file: %w", err)
	}
	t.csv, err = os.Create(t.CSVPath)
	if err != nil {
		t.bin.Close()
		os.Remove(t.BinPath)
		return nil, fmt.Errorf("create record file: %w", err)
	}
	return t, nil
}

func (t *Target) close() error {
	return errors.Join(t.bin.Close(), t.csv.Close())
}

// remove closes and deletes both files. Files already gone are not an error.
func (t *Target) remove() error {
	errs := []error{t.close()}
	for _, path := range []string{t.BinPath, t.CSVPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// save copies the non-empty files to prefix.bin and prefix.csv.
func (t *Target) save(prefix string) ([]string, error) {
	var written []string
	for _, pair := range [][2]string{{t.BinPath, prefix + ".bin"}, {t.CSVPath, prefix + ".csv"}} {
		ok, err := copyIfNonEmpty(pair[0], pair[1])
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, pair[1])
		}
	}
	if len(written) == 0 {
		return nil, ErrNothingRecorded
	}
	return written, nil
}

func copyIfNonEmpty(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}

	out, err := os.Create(dst)
	if err != nil {
		return false, fmt.Errorf("save %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return false, fmt.Errorf("save %s: %w", dst, err)
	}
	return true, out.Close()
}
