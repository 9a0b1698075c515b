package checkpoint

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
)

// CSVStore keeps records in a CSV file whose header is games.Columns.
type CSVStore struct {
	path string
}

// NewCSVStore returns a store backed by the CSV file at path. The file is
// created on the first Create.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Exists reports whether the file exists.
func (s *CSVStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// LastName streams the file and returns the name of the last row that has one.
func (s *CSVStore) LastName(ctx context.Context) (string, error) {
	var last string
	err := s.scan(ctx, func(header []string, row []string) error {
		col := slices.Index(header, "name")
		if col >= 0 && col < len(row) && row[col] != "" {
			last = row[col]
		}
		return nil
	})
	return last, err
}

// Records parses every row.
func (s *CSVStore) Records(ctx context.Context) ([]games.Record, error) {
	var records []games.Record
	err := s.scan(ctx, func(header []string, row []string) error {
		r, err := games.ParseRow(header, row)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	return records, err
}

// scan calls fn for every data row. A missing file has no rows.
func (s *CSVStore) scan(ctx context.Context, fn func(header, row []string) error) error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.NewParseError("csv", s.path, "header", err)
	}
	header = slices.Clone(header)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParseError("csv", s.path, "row", err)
		}
		if err := fn(header, row); err != nil {
			return err
		}
	}
}

// Append writes records at the end of the file. An absent or empty file
// gets a header first. A trailing row cut short by an interrupted append is
// dropped before writing, and a failed write is rolled back.
func (s *CSVStore) Append(ctx context.Context, records []games.Record) error {
	complete, err := s.endsWithNewline()
	if err != nil {
		return err
	}
	if !complete {
		if _, err := s.Repair(ctx); err != nil {
			return err
		}
	}

	var size int64
	if info, err := os.Stat(s.path); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(s.path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(s.path), err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("open", s.path, err)
	}
	if err := write(f, records, size == 0); err != nil {
		if truncErr := f.Truncate(size); truncErr != nil {
			logging.Warn().Err(truncErr).Str("path", s.path).Msg("Failed to roll back partial append")
		}
		_ = f.Close()
		return errors.WrapIO("write", s.path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", s.path, err)
	}
	return nil
}

// Repair truncates the file after its last complete row. A row is
// incomplete when it is not newline terminated or when its quoted field runs
// into the end of the file. It returns the number of bytes removed.
func (s *CSVStore) Repair(ctx context.Context) (int64, error) {
	f, err := os.OpenFile(s.path, os.O_RDWR, 0)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, errors.WrapIO("stat", s.path, err)
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}
	tail := make([]byte, 1)
	if _, err := f.ReadAt(tail, size-1); err != nil {
		return 0, errors.WrapIO("read", s.path, err)
	}
	terminated := tail[0] == '\n'

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var good int64
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrQuote) && r.InputOffset() == size {
				break
			}
			return 0, errors.NewParseError("csv", s.path, "row", err)
		}
		if r.InputOffset() == size && !terminated {
			break
		}
		good = r.InputOffset()
	}
	if good == size {
		return 0, nil
	}
	if err := f.Truncate(good); err != nil {
		return 0, errors.WrapIO("truncate", s.path, err)
	}
	logging.Warn().
		Str("path", s.path).
		Int64("dropped_bytes", size-good).
		Msg("Dropped incomplete trailing row")
	return size - good, nil
}

// endsWithNewline reports whether the file is absent, empty or ends in a
// newline.
func (s *CSVStore) endsWithNewline() (bool, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.WrapIO("open", s.path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return false, errors.WrapIO("stat", s.path, err)
	}
	if info.Size() == 0 {
		return true, nil
	}
	tail := make([]byte, 1)
	if _, err := f.ReadAt(tail, info.Size()-1); err != nil {
		return false, errors.WrapIO("read", s.path, err)
	}
	return tail[0] == '\n', nil
}

// Create writes the header and records to a temporary file and renames it
// over the store.
func (s *CSVStore) Create(_ context.Context, records []games.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", s.path, err)
	}
	defer func() {
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.Warn().Err(removeErr).Str("path", tmp.Name()).Msg("Failed to remove temporary file")
		}
	}()

	if err := write(tmp, records, true); err != nil {
		_ = tmp.Close()
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.WrapIO("rename", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation.
func (s *CSVStore) Close() error {
	return nil
}

func write(w io.Writer, records []games.Record, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(games.Columns); err != nil {
			return err
		}
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
