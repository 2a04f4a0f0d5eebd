// Package upload validates user files against the upload endpoints and hands them to a Store.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/user"
)

const (
	KiB = 1 << 10
	MiB = 1 << 20

	EndpointProgramImage      = "programImage"
	EndpointProgramAttachment = "programAttachment"
	EndpointProfileImage      = "profileImage"
)

var (
	// errors
	ErrUnknownEndpoint = errors.New("unknown upload endpoint")
	ErrForbidden       = errors.New("you are not allowed to upload here")
	ErrNoFile          = errors.New("no file provided")
	ErrTooLarge        = errors.New("file is too large")
	ErrTypeNotAllowed  = errors.New("file type not allowed")
)

// Endpoint describes what an upload endpoint key accepts.
type Endpoint struct {
	Key         string
	MaxFileSize int64
	// AllowedTypes are media types ("application/pdf") or type prefixes ("image/").
	AllowedTypes []string
	// Roles allowed to upload; empty means any authenticated user.
	Roles []string
}

func (e Endpoint) allowsRole(role string) bool {
	if len(e.Roles) == 0 {
		return true
	}
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (e Endpoint) allowsType(mediaType string) bool {
	for _, t := range e.AllowedTypes {
		if strings.HasSuffix(t, "/") {
			if strings.HasPrefix(mediaType, t) {
				return true
			}
		} else if mediaType == t {
			return true
		}
	}
	return false
}

// DefaultEndpoints is the file router of the platform.
var DefaultEndpoints = []Endpoint{
	{
		Key:          EndpointProgramImage,
		MaxFileSize:  4 * MiB,
		AllowedTypes: []string{"image/"},
		Roles:        []string{user.RoleAdmin, user.RoleTeacher},
	},
	{
		Key:          EndpointProgramAttachment,
		MaxFileSize:  16 * MiB,
		AllowedTypes: []string{"application/pdf", "text/plain", "image/", "audio/", "video/"},
		Roles:        []string{user.RoleAdmin, user.RoleTeacher},
	},
	{
		Key:          EndpointProfileImage,
		MaxFileSize:  4 * MiB,
		AllowedTypes: []string{"image/"},
	},
}

// File is an incoming upload.
type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Result is what the upload widget gets back.
type Result struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Store persists uploaded files.
type Store interface {
	// Put saves the content under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, content io.Reader) (string, error)
}

type Service struct {
	store     Store
	endpoints map[string]Endpoint
}

func NewService(store Store, endpoints ...Endpoint) *Service {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	svc := &Service{store: store, endpoints: make(map[string]Endpoint, len(endpoints))}
	for _, e := range endpoints {
		svc.endpoints[e.Key] = e
	}
	return svc
}

// Endpoint returns the endpoint registered under key.
func (svc *Service) Endpoint(key string) (Endpoint, bool) {
	e, ok := svc.endpoints[key]
	return e, ok
}

// Upload checks the file against the endpoint rules, then stores it under a fresh key.
func (svc *Service) Upload(ctx context.Context, endpointKey string, uploader user.User, file File) (Result, error) {
	endpoint, ok := svc.endpoints[endpointKey]
	if !ok {
		return Result{}, ErrUnknownEndpoint
	}
	if !endpoint.allowsRole(uploader.Role) {
		return Result{}, ErrForbidden
	}
	if file.Content == nil || file.Size == 0 {
		return Result{}, ErrNoFile
	}
	if file.Size > endpoint.MaxFileSize {
		return Result{}, errors.Wrapf(ErrTooLarge, "max %s", formatSize(endpoint.MaxFileSize))
	}

	// sniff the actual content type; never trust the client
	head := make([]byte, 512)
	n, err := io.ReadFull(file.Content, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, errors.Wrap(err, "reading upload")
	}
	head = head[:n]
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	if mediaType == "text/plain" || mediaType == "application/octet-stream" {
		// DetectContentType cannot tell some formats apart; trust the extension for those
		if byExt := mime.TypeByExtension(path.Ext(file.Name)); byExt != "" {
			if mt, _, err := mime.ParseMediaType(byExt); err == nil && (mediaType != "text/plain" || strings.HasPrefix(mt, "text/")) {
				mediaType = mt
			}
		}
	}
	if !endpoint.allowsType(mediaType) {
		return Result{}, errors.Wrapf(ErrTypeNotAllowed, "%s", mediaType)
	}

	key := uuid.New().String() + strings.ToLower(path.Ext(file.Name))
	content := io.MultiReader(bytes.NewReader(head), io.LimitReader(file.Content, endpoint.MaxFileSize-int64(n)))
	url, err := svc.store.Put(ctx, key, mediaType, content)
	if err != nil {
		return Result{}, errors.Wrap(err, "storing upload")
	}
	return Result{URL: url, Key: key, Name: path.Base(file.Name), Size: file.Size, Type: mediaType}, nil
}

func formatSize(n int64) string {
	if n >= MiB {
		return fmt.Sprintf("%dMB", n/MiB)
	}
	return fmt.Sprintf("%dKB", n/KiB)
}
