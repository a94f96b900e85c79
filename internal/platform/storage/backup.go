package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookclub/internal/config"
)

// BackupToZip writes a zip of the database and uploads directory.
func BackupToZip(cfg config.Config, destPath string) (path string, err error) {
	if destPath == "" {
		destPath = fmt.Sprintf("bookclub-backup-%s.zip", time.Now().UTC().Format("20060102-150405"))
	}
	if filepath.Ext(destPath) != ".zip" {
		destPath = destPath + ".zip"
	}
	out, err := os.Create(destPath)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := out.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(destPath)
		}
	}()

	zipWriter := zip.NewWriter(out)
	if err := addFileToZip(zipWriter, cfg.DBPath, "bookclub.db"); err != nil {
		_ = zipWriter.Close()
		return "", err
	}
	if cfg.UploadsDir != "" {
		if err := addDirToZip(zipWriter, cfg.UploadsDir, "uploads", skipCache(cfg)); err != nil {
			_ = zipWriter.Close()
			return "", err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return "", err
	}
	return destPath, nil
}

// skipCache excludes the derived-size cache; it is rebuilt on demand.
func skipCache(cfg config.Config) func(string) bool {
	cacheRoot := filepath.Join(cfg.UploadsDir, "cache")
	return func(path string) bool {
		return path == cacheRoot
	}
}

func addFileToZip(zipWriter *zip.Writer, sourcePath, name string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}

func addDirToZip(zipWriter *zip.Writer, sourceDir, prefix string, skipDir func(string) bool) error {
	if _, err := os.Stat(sourceDir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(filepath.Base(rel), ".") {
			return nil
		}
		name := filepath.ToSlash(filepath.Join(prefix, rel))
		return addFileToZip(zipWriter, path, name)
	})
}
