package news

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// FileFeed serves per-ticker article collections from a directory of YAML
// files, one file per ticker. A ticker without a file simply has no coverage.
type FileFeed struct {
	dir string
}

// NewFileFeed creates a feed rooted at dir.
func NewFileFeed(dir string) *FileFeed {
	return &FileFeed{dir: dir}
}

// Articles loads the article list for a ticker. Order is not significant;
// extraction consumes articles in any order.
func (f *FileFeed) Articles(_ context.Context, ticker string) ([]types.Article, error) {
	path := filepath.Join(f.dir, ticker+".yaml")

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read news file for %s", ticker)
	}

	var articles []types.Article
	if err := yaml.Unmarshal(raw, &articles); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to parse news file for %s", ticker)
	}

	return articles, nil
}
