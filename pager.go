package chigo

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	// DefaultPageSize is the page size used when creating a new
	// database file.
	DefaultPageSize = 1024

	// HeaderSize is the size of the file header stored at the start of
	// page 1.
	HeaderSize = 100
)

// MemPage represents an in-memory copy of a page. Offsets stored on
// disk (in node headers and cell offset arrays) are absolute within
// the data slice, including on page 1 where the first HeaderSize bytes
// belong to the file header.
type MemPage struct {
	// Number of the physical page, starting at 1
	number uint32

	// Page bytes data
	data []byte
}

// Number returns the physical page number.
func (m *MemPage) Number() uint32 { return m.number }

// Pager handles paged access to the database file. It owns the file
// handle, the configured page size and the page counter. The page size
// is unknown until SetPageSize is called, since it comes either from
// the file header or from the default on creation.
type Pager struct {
	file       *os.File
	pageSize   uint16
	totalPages uint32
	pinned     int
}

// OpenPager opens a file for paged access, creating it if needed.
func OpenPager(filename string) (*Pager, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return &Pager{file: f}, nil
}

// SetPageSize configures the page size and derives the number of pages
// already present in the file.
func (p *Pager) SetPageSize(size uint16) error {
	if size < HeaderSize {
		return fmt.Errorf("page size %d too small", size)
	}
	info, err := p.file.Stat()
	if err != nil {
		return err
	}
	p.pageSize = size
	p.totalPages = uint32(info.Size() / int64(size))
	if info.Size()%int64(size) != 0 {
		p.totalPages++
	}
	return nil
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() uint16 { return p.pageSize }

// TotalPages returns the number of allocated pages.
func (p *Pager) TotalPages() uint32 { return p.totalPages }

// Pins returns the number of pages currently pinned. Every ReadPage
// must be balanced by exactly one ReleasePage.
func (p *Pager) Pins() int { return p.pinned }

// IsEmpty reports whether the file holds no data at all, which is the
// case when the pager was given a filename that did not exist.
func (p *Pager) IsEmpty() (bool, error) {
	info, err := p.file.Stat()
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

// ReadHeader reads the file header and returns it in a byte array.
// Note that this function can be called even if the page size is
// unknown, since the header always occupies the first HeaderSize bytes
// of the file.
func (p *Pager) ReadHeader() ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := p.file.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return header, nil
}

// WriteHeader writes the file header at the start of the file.
func (p *Pager) WriteHeader(header []byte) error {
	if l := len(header); l != HeaderSize {
		return fmt.Errorf("invalid header size %d", l)
	}
	if _, err := p.file.WriteAt(header, 0); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// ReadPage reads a page from the file and returns an in-memory copy in
// a MemPage struct. Pages past the current end of the file read as
// zeroes. Any changes done to a MemPage will not be effective until
// WritePage is called with that MemPage. The page stays pinned until
// ReleasePage.
func (p *Pager) ReadPage(page uint32) (*MemPage, error) {
	if err := p.pageIsValid(page); err != nil {
		return nil, err
	}

	data := make([]byte, p.pageSize)
	if _, err := p.file.ReadAt(data, p.offset(page)); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read page %d: %w", page, err)
	}
	p.pinned++
	slog.Debug("page read", "page", page)

	return &MemPage{number: page, data: data}, nil
}

// WritePage writes the in-memory copy of a page back to the file.
func (p *Pager) WritePage(page *MemPage) error {
	if err := p.pageIsValid(page.number); err != nil {
		return err
	}
	if l := len(page.data); l != int(p.pageSize) {
		return fmt.Errorf("invalid page data size: expected %d got %d", p.pageSize, l)
	}

	if _, err := p.file.WriteAt(page.data, p.offset(page.number)); err != nil {
		return fmt.Errorf("write page %d: %w", page.number, err)
	}
	slog.Debug("page written", "page", page.number)

	return nil
}

// ReleasePage unpins a page returned by ReadPage. The MemPage must not
// be used afterwards.
func (p *Pager) ReleasePage(page *MemPage) {
	if page == nil || page.data == nil {
		return
	}
	page.data = nil
	p.pinned--
}

// AllocatePage allocates an extra page at the end of the file and
// returns the page number. The page itself is materialized by the next
// ReadPage/WritePage pair.
func (p *Pager) AllocatePage() uint32 {
	p.totalPages++
	slog.Debug("page allocated", "page", p.totalPages)
	return p.totalPages
}

// Close closes the underlying file.
func (p *Pager) Close() error {
	return p.file.Close()
}

func (p *Pager) pageIsValid(page uint32) error {
	if p.pageSize == 0 {
		return fmt.Errorf("page size not configured")
	}
	if page == 0 || page > p.totalPages {
		return fmt.Errorf("page %d: %w", page, ErrInvalidPageNumber)
	}
	return nil
}

func (p *Pager) offset(page uint32) int64 {
	return int64(page-1) * int64(p.pageSize)
}
