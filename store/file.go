package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/rushteam/sommelier/core"
)

// FileHistory 把每个用户的历史保存为 Dir 下的 <userID>.jsonl 文件，每行一条记录。
// 读取时也接受整个文件是一个 JSON 数组的格式。
type FileHistory struct {
	Dir string

	mu sync.Mutex
}

func NewFileHistory(dir string) (*FileHistory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file history: %w", err)
	}
	return &FileHistory{Dir: dir}, nil
}

func (f *FileHistory) Name() string { return "file" }

func (f *FileHistory) path(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || userID == "." || userID == ".." {
		return "", fmt.Errorf("%w: user id %q", core.ErrInvalidInput, userID)
	}
	return filepath.Join(f.Dir, userID+".jsonl"), nil
}

// History 读取用户历史；文件不存在时返回空切片。
func (f *FileHistory) History(_ context.Context, userID string) ([]core.HistoryRecord, error) {
	p, err := f.path(userID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file history: %w", err)
	}
	defer file.Close()
	return ReadHistory(file)
}

func (f *FileHistory) Append(_ context.Context, userID string, rec core.HistoryRecord) error {
	p, err := f.path(userID)
	if err != nil {
		return err
	}
	line, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("file history: encode: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("file history: %w", err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("file history: %w", err)
	}
	return file.Close()
}

func (f *FileHistory) Close() error { return nil }

// ReadHistory 解析 JSON Lines 或 JSON 数组格式的历史记录。
func ReadHistory(r io.Reader) ([]core.HistoryRecord, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []core.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var wires []recordWire
		if err := json.NewDecoder(br).Decode(&wires); err != nil {
			return nil, fmt.Errorf("%w: decode history array: %v", core.ErrInvalidInput, err)
		}
		out := make([]core.HistoryRecord, 0, len(wires))
		for i, w := range wires {
			rec, err := fromWire(w)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			out = append(out, rec)
		}
		return out, nil
	}

	out := make([]core.HistoryRecord, 0)
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, err := decodeRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\n' || b == '\r' || b == '\t' {
			continue
		}
		return b, br.UnreadByte()
	}
}

var _ core.HistoryStore = (*FileHistory)(nil)
