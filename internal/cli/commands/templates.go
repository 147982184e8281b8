package commands

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// Project templates written by init.
const (
	templateMinimal = "minimal"
	templateExample = "example"
)

// scaffoldFile is one file written (or kept) by scaffold.
type scaffoldFile struct {
	Path string
	Kept bool
}

// Group is the init output section the file is listed under.
func (f scaffoldFile) Group() string {
	if strings.HasPrefix(filepath.ToSlash(f.Path), "data/") {
		return "Data"
	}
	return "Configuration"
}

// scaffold writes the embedded template into dir. Existing files are kept
// unless force is set. Template names without a leading dot are written as
// dotfiles, since go:embed cannot hold "gitignore" under its real name.
func scaffold(template, dir string, force bool) ([]scaffoldFile, error) {
	root := path.Join("templates", template)
	if _, err := fs.Stat(templateFS, root); err != nil {
		return nil, errors.New("unknown project template: " + template)
	}

	var files []scaffoldFile
	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel := targetName(strings.TrimPrefix(p, root+"/"))
		target := filepath.Join(dir, filepath.FromSlash(rel))
		file := scaffoldFile{Path: rel}

		if _, err := os.Stat(target); err == nil && !force {
			file.Kept = true
			files = append(files, file)
			return nil
		}

		content, err := templateFS.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	return files, err
}

func targetName(rel string) string {
	dir, base := path.Split(rel)
	if base == "gitignore" {
		base = ".gitignore"
	}
	return dir + base
}
