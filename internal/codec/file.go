package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Betrayd/game-maps/internal/gamemap"
	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression обёртка сжатия файла карты
type Compression uint8

const (
	Gzip Compression = iota // по умолчанию, как в обычных файлах NBT
	Zstd
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompression разбирает имя сжатия; пустая строка - gzip
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "gzip", "gz":
		return Gzip, nil
	case "zstd", "zst":
		return Zstd, nil
	}
	return Gzip, fmt.Errorf("unknown compression %q", s)
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ErrUnknownFormat поток не начинается ни с gzip, ни с zstd
var ErrUnknownFormat = errors.New("unknown map file compression")

// Write кодирует дерево NBT в w со сжатием comp
func Write(w io.Writer, tree map[string]any, comp Compression) error {
	var (
		zw  io.WriteCloser
		err error
	)
	switch comp {
	case Gzip:
		zw = gzip.NewWriter(w)
	case Zstd:
		zw, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
	default:
		return fmt.Errorf("unsupported compression %v", comp)
	}

	bw := bufio.NewWriterSize(zw, 64*1024)
	if err := nbt.NewEncoder(bw).Encode(tree, ""); err != nil {
		zw.Close()
		return fmt.Errorf("nbt encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Read читает дерево NBT; сжатие определяется по сигнатуре потока
func Read(r io.Reader) (map[string]any, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	head, err := br.Peek(4)
	if err != nil && len(head) < 2 {
		return nil, fmt.Errorf("read header: %w", err)
	}

	var src io.Reader
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer zr.Close()
		src = zr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		src = zr
	default:
		return nil, ErrUnknownFormat
	}

	var tree map[string]any
	if _, err := nbt.NewDecoder(src).Decode(&tree); err != nil {
		return nil, fmt.Errorf("nbt decode: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("nbt decode: top level is not a compound")
	}
	return tree, nil
}

// WriteFile атомарно пишет дерево в файл через временный файл и rename
func WriteFile(path string, tree map[string]any, comp Compression) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := Write(tmp, tree, comp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadFile читает дерево из файла
func ReadFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Marshal кодирует карту в сжатые байты
func (s *Serializer) Marshal(m *gamemap.GameMap, comp Compression) ([]byte, error) {
	tree, err := s.Encode(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(&buf, tree, comp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile кодирует карту в файл
func (s *Serializer) SaveFile(path string, m *gamemap.GameMap, comp Compression) error {
	tree, err := s.Encode(m)
	if err != nil {
		return err
	}
	return WriteFile(path, tree, comp)
}

// Unmarshal восстанавливает карту из сжатых байтов
func (d *Deserializer) Unmarshal(data []byte) (*gamemap.GameMap, error) {
	tree, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return d.Decode(tree)
}

// LoadFile читает карту из файла
func (d *Deserializer) LoadFile(path string) (*gamemap.GameMap, error) {
	tree, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return d.Decode(tree)
}
