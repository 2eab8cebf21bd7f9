package filestore

import (
	"path/filepath"

	"video-training-service/internal/domain"
)

const (
	catalogFile  = "videos.json"
	accountsFile = "users.json"
	resultsFile  = "results.csv"
)

type catalogDoc struct {
	Videos []domain.Video `json:"videos"`
}

type accountsDoc struct {
	Users []domain.User `json:"users"`
}

// Catalog stores the video catalog as a single JSON document.
type Catalog struct {
	doc *Document[catalogDoc]
}

func NewCatalog(dir string) *Catalog {
	return &Catalog{doc: NewDocument[catalogDoc](filepath.Join(dir, catalogFile))}
}

func (c *Catalog) LoadCatalog() ([]domain.Video, error) {
	doc, err := c.doc.Load()
	if err != nil {
		return nil, err
	}
	return doc.Videos, nil
}

func (c *Catalog) SaveCatalog(videos []domain.Video) error {
	if videos == nil {
		videos = []domain.Video{}
	}
	return c.doc.Save(catalogDoc{Videos: videos})
}

// Accounts stores users as a single JSON document.
type Accounts struct {
	doc *Document[accountsDoc]
}

func NewAccounts(dir string) *Accounts {
	return &Accounts{doc: NewDocument[accountsDoc](filepath.Join(dir, accountsFile))}
}

func (a *Accounts) LoadAccounts() ([]domain.User, error) {
	doc, err := a.doc.Load()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (a *Accounts) SaveAccounts(users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	return a.doc.Save(accountsDoc{Users: users})
}
