// Package image performs syntactic validation of the boot images a run
// references, before any disk mutation happens.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadImage is returned when a file carries none of the recognized boot
// signatures.
var ErrBadImage = errors.New("no recognized boot signature")

// Validator checks that an image file looks like bootable media. The check
// is purely syntactic: it proves the file has a known signature, not that
// the payload actually boots.
type Validator interface {
	Validate(path string) error
}

const (
	// ISO9660 primary volume descriptor: "CD001" at byte 32769.
	isoMagicOffset = 32769
	// MBR boot signature at bytes 510-511, present on hybrid ISOs and raw
	// disk images.
	mbrMagicOffset = 510
)

var (
	isoMagic = []byte("CD001")
	mbrMagic = []byte{0x55, 0xaa}
	wimMagic = []byte("MSWIM\x00\x00\x00")
)

// BootSignatureValidator accepts ISO9660 images, images with an MBR boot
// signature (hybrid ISOs, raw disk dumps), and WIM archives.
type BootSignatureValidator struct{}

func (BootSignatureValidator) Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".wim") {
		ok, err := matchesAt(f, 0, wimMagic)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if !ok {
			return fmt.Errorf("%w: %s is not a WIM archive", ErrBadImage, path)
		}
		return nil
	}

	iso, err := matchesAt(f, isoMagicOffset, isoMagic)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	mbr, err := matchesAt(f, mbrMagicOffset, mbrMagic)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if !iso && !mbr {
		return fmt.Errorf("%w: %s has neither an ISO9660 descriptor nor an MBR boot signature", ErrBadImage, path)
	}
	return nil
}

// matchesAt reports whether the file contains magic at the given offset. A
// file too short to hold the signature simply does not match.
func matchesAt(f *os.File, offset int64, magic []byte) (bool, error) {
	buffer := make([]byte, len(magic))
	_, err := f.ReadAt(buffer, offset)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bytes.Equal(buffer, magic), nil
}
