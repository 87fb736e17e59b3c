package fetch

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/pgembed/pgembed/internal/fileutil"
)

// payloadSuffix is the extension of the inner tar archive carried by the
// outer zip.
const payloadSuffix = ".txz"

// ErrNoPayload is returned when the outer archive contains no txz payload.
var ErrNoPayload = errors.New("archive contains no txz payload")

// Unpack extracts a persisted binaries archive into destDir. The outer file
// is a zip holding a single xz-compressed tar; its entries (bin/, lib/,
// share/) land directly under destDir with their modes preserved.
func Unpack(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	defer zr.Close() //nolint:errcheck // read-only archive handle

	for _, entry := range zr.File {
		if !strings.HasSuffix(entry.Name, payloadSuffix) {
			continue
		}
		payload, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open payload %s: %w", entry.Name, err)
		}
		err = extractTxz(payload, destDir)
		if closeErr := payload.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("extract payload %s: %w", entry.Name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNoPayload, archivePath)
}

// extractTxz decompresses an xz stream and extracts the contained tar into
// destDir.
func extractTxz(r io.Reader, destDir string) error {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return fmt.Errorf("open xz stream: %w", err)
	}

	tr := tar.NewReader(xzr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}
		if err := extractEntry(tr, hdr, destDir); err != nil {
			return err
		}
	}
}

// extractEntry writes one tar entry under destDir, rejecting paths that
// would escape it.
func extractEntry(tr *tar.Reader, hdr *tar.Header, destDir string) error {
	target, err := safeJoin(destDir, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		if err := fileutil.EnsureDir(target); err != nil {
			return fmt.Errorf("extract dir %s: %w", hdr.Name, err)
		}
	case tar.TypeReg:
		if err := writeEntryFile(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
			return fmt.Errorf("extract file %s: %w", hdr.Name, err)
		}
	case tar.TypeSymlink:
		if err := checkLinkTarget(destDir, target, hdr.Linkname); err != nil {
			return fmt.Errorf("extract symlink %s: %w", hdr.Name, err)
		}
		if err := fileutil.EnsureDirForFile(target); err != nil {
			return fmt.Errorf("extract symlink %s: %w", hdr.Name, err)
		}
		// Stale links from a previous partial unpack are replaced.
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("replace symlink %s: %w", hdr.Name, err)
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return fmt.Errorf("extract symlink %s: %w", hdr.Name, err)
		}
	default:
		// Hard links, devices, and other entry types do not occur in the
		// published archives; skip rather than fail.
	}
	return nil
}

// writeEntryFile creates the file for a regular tar entry with the entry's
// permission bits, preserving executable bits on the server binaries.
func writeEntryFile(r io.Reader, target string, mode os.FileMode) error {
	if err := fileutil.EnsureDirForFile(target); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return copyErr
	}
	return closeErr
}

// checkLinkTarget rejects symlink targets that resolve outside destDir. A
// link could otherwise point at an arbitrary path and a later entry
// extracted through it would land outside the cache directory. Relative
// targets resolve against the link's own directory.
func checkLinkTarget(destDir, linkPath, linkTarget string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink target %s is absolute", linkTarget)
	}
	resolved := filepath.Join(filepath.Dir(linkPath), filepath.FromSlash(linkTarget))
	if resolved != destDir && !strings.HasPrefix(resolved, destDir+string(os.PathSeparator)) {
		return fmt.Errorf("symlink target %s escapes destination directory", linkTarget)
	}
	return nil
}

// safeJoin joins name under destDir and rejects entries escaping it.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes destination directory", name)
	}
	return target, nil
}
