package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/phmhse/csmstrack/internal/apperr"
)

const folderMime = "application/vnd.google-apps.folder"

// DriveOpts configures NewDrive.
type DriveOpts struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	FolderID     string // root folder every upload goes under
	// ClientOptions replace the refresh-token auth when set (tests point
	// the client at a local server this way).
	ClientOptions []option.ClientOption
}

// Drive uploads to Google Drive v3 under a root folder.
type Drive struct {
	svc    *drive.Service
	root   string
	mu     sync.Mutex
	folder map[string]string // parent/name -> folder id
}

// NewDrive builds a Drive client authorised with an OAuth2 refresh token.
func NewDrive(ctx context.Context, opts DriveOpts) (*Drive, error) {
	if opts.FolderID == "" {
		return nil, apperr.Validation("storage.drive.folder_id", "required")
	}
	clientOpts := opts.ClientOptions
	if len(clientOpts) == 0 {
		if opts.ClientID == "" || opts.ClientSecret == "" || opts.RefreshToken == "" {
			return nil, apperr.Validation("storage.drive", "client_id, client_secret and refresh_token are required")
		}
		cfg := &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveFileScope, drive.DriveScope},
		}
		ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.RefreshToken})
		clientOpts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	svc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: drive: %w", err)
	}
	return &Drive{svc: svc, root: opts.FolderID, folder: make(map[string]string)}, nil
}

// Upload stores data in the root folder.
func (d *Drive) Upload(ctx context.Context, data []byte, contentType, nameHint string) (Reference, error) {
	return d.UploadTo(ctx, data, contentType, nameHint, nil)
}

// UploadTo stores data under a nested folder path below the root, creating
// missing folders.
func (d *Drive) UploadTo(ctx context.Context, data []byte, contentType, name string, path []string) (Reference, error) {
	if name == "" {
		return Reference{}, apperr.Validation("name", "required")
	}
	parent := d.root
	for _, seg := range path {
		id, err := d.ensureFolder(ctx, parent, seg)
		if err != nil {
			return Reference{}, err
		}
		parent = id
	}
	f, err := d.svc.Files.Create(&drive.File{Name: name, Parents: []string{parent}}).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Fields("id", "name", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return Reference{}, apperr.Upstream("drive upload "+name, err)
	}
	return toRef(f), nil
}

// Download returns a file's content.
func (d *Drive) Download(ctx context.Context, id string) ([]byte, error) {
	resp, err := d.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("drive file", id)
		}
		return nil, apperr.Upstream("drive download "+id, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream("drive download "+id, err)
	}
	return data, nil
}

// Delete removes a file. A missing file is not an error.
func (d *Drive) Delete(ctx context.Context, id string) error {
	err := d.svc.Files.Delete(id).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return apperr.Upstream("drive delete "+id, err)
	}
	return nil
}

// ensureFolder finds a folder named name under parent or creates it.
func (d *Drive) ensureFolder(ctx context.Context, parent, name string) (string, error) {
	key := parent + "/" + name
	d.mu.Lock()
	id, ok := d.folder[key]
	d.mu.Unlock()
	if ok {
		return id, nil
	}

	q := fmt.Sprintf("name = '%s' and '%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(name), escapeQuery(parent), folderMime)
	list, err := d.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", apperr.Upstream("drive find folder "+name, err)
	}
	if len(list.Files) > 0 {
		id = list.Files[0].Id
	} else {
		f, err := d.svc.Files.Create(&drive.File{Name: name, MimeType: folderMime, Parents: []string{parent}}).
			Fields("id").Context(ctx).Do()
		if err != nil {
			return "", apperr.Upstream("drive create folder "+name, err)
		}
		id = f.Id
	}

	d.mu.Lock()
	d.folder[key] = id
	d.mu.Unlock()
	return id, nil
}

// TaskFolder returns the folder path for a task's evidence:
// project, "Element N", then "code title".
func TaskFolder(project, code, title string) []string {
	path := []string{project}
	code = strings.TrimSpace(code)
	if code == "" {
		return path
	}
	element, _, _ := strings.Cut(code, ".")
	leaf := code
	if t := safeName(title); t != "" {
		leaf += " " + t
	}
	return append(path, "Element "+element, leaf)
}

func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '.' || r == '_' || r == '-' || r == ' ' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toRef(f *drive.File) Reference {
	ref := Reference{ID: f.Id, Name: f.Name, URL: f.WebViewLink}
	if ref.URL == "" && f.Id != "" {
		ref.URL = "https://drive.google.com/file/d/" + f.Id + "/view"
	}
	return ref
}
