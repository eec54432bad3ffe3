package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/agentx-labs/skilldocs/internal/logger"
)

// Link modes accepted by NewLinkStrategy.
const (
	ModeAuto    = "auto"
	ModeSymlink = "symlink"
	ModeCopy    = "copy"
)

// LinkStrategy makes a canonical directory visible at a target path.
type LinkStrategy interface {
	// Link makes canonicalPath available at targetPath, replacing whatever
	// was there before.
	Link(ctx context.Context, canonicalPath, targetPath string) error
	// Unlink removes targetPath. A missing target is not an error.
	Unlink(ctx context.Context, targetPath string) error
	// Name identifies the strategy in logs.
	Name() string
}

// NewLinkStrategy returns the strategy for a configured link mode.
func NewLinkStrategy(mode string) (LinkStrategy, error) {
	switch mode {
	case "", ModeAuto:
		if !IsSymlinkSupported() {
			return CopyStrategy{}, nil
		}
		return FallbackStrategy{Primary: SymlinkStrategy{}, Secondary: CopyStrategy{}}, nil
	case ModeSymlink:
		return SymlinkStrategy{}, nil
	case ModeCopy:
		return CopyStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown link mode %q (valid: %s, %s, %s)", mode, ModeAuto, ModeSymlink, ModeCopy)
	}
}

// SymlinkStrategy creates a relative directory symlink, so a project can be
// moved or checked out elsewhere without breaking its links.
type SymlinkStrategy struct{}

func (SymlinkStrategy) Name() string { return ModeSymlink }

func (SymlinkStrategy) Link(_ context.Context, canonicalPath, targetPath string) error {
	if err := prepareTarget(targetPath); err != nil {
		return err
	}

	rel, err := filepath.Rel(filepath.Dir(targetPath), canonicalPath)
	if err != nil {
		rel = canonicalPath
	}
	if err := os.Symlink(rel, targetPath); err != nil {
		return fmt.Errorf("symlinking %s -> %s: %w", targetPath, rel, err)
	}
	return nil
}

func (SymlinkStrategy) Unlink(_ context.Context, targetPath string) error {
	return removeTarget(targetPath)
}

// CopyStrategy copies the canonical directory into place.
type CopyStrategy struct{}

func (CopyStrategy) Name() string { return ModeCopy }

func (CopyStrategy) Link(_ context.Context, canonicalPath, targetPath string) error {
	if err := prepareTarget(targetPath); err != nil {
		return err
	}
	if err := copyDir(canonicalPath, targetPath); err != nil {
		os.RemoveAll(targetPath)
		return fmt.Errorf("copying %s to %s: %w", canonicalPath, targetPath, err)
	}
	return nil
}

func (CopyStrategy) Unlink(_ context.Context, targetPath string) error {
	return removeTarget(targetPath)
}

// FallbackStrategy tries Primary and falls back to Secondary when it fails.
type FallbackStrategy struct {
	Primary   LinkStrategy
	Secondary LinkStrategy
}

func (f FallbackStrategy) Name() string {
	return f.Primary.Name() + "+" + f.Secondary.Name()
}

func (f FallbackStrategy) Link(ctx context.Context, canonicalPath, targetPath string) error {
	err := f.Primary.Link(ctx, canonicalPath, targetPath)
	if err == nil {
		return nil
	}
	logger.G(ctx).WithError(err).WithField("target", targetPath).
		Debugf("%s failed, falling back to %s", f.Primary.Name(), f.Secondary.Name())

	if err2 := f.Secondary.Link(ctx, canonicalPath, targetPath); err2 != nil {
		return errors.Join(err, err2)
	}
	return nil
}

func (f FallbackStrategy) Unlink(ctx context.Context, targetPath string) error {
	return f.Primary.Unlink(ctx, targetPath)
}

// IsSymlink reports whether path is a symbolic link.
func IsSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// IsSymlinkSupported returns true if the current platform supports native
// symlinks. On Windows this attempts a test symlink to check developer mode.
func IsSymlinkSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}

	dir, err := os.MkdirTemp("", "skilldocs-symlink-test")
	if err != nil {
		return false
	}
	defer os.RemoveAll(dir)

	return os.Symlink(dir, filepath.Join(dir, "link")) == nil
}

// prepareTarget creates the target's parent and clears the target itself.
func prepareTarget(targetPath string) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(targetPath), err)
	}
	return removeTarget(targetPath)
}

// removeTarget removes a symlink without following it, or a copied
// directory recursively.
func removeTarget(targetPath string) error {
	info, err := os.Lstat(targetPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspecting %s: %w", targetPath, err)
	}
	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		err = os.Remove(targetPath)
	} else {
		err = os.RemoveAll(targetPath)
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", targetPath, err)
	}
	return nil
}

// copyDir recursively copies src to dst. Symlinks and other special files
// are skipped.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, srcInfo.Mode().Perm())
}
