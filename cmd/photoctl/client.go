package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yongikim/photolio-lambda-functions/internal/model"
)

// photoClient calls the photo service REST API.
type photoClient struct {
	client *resty.Client
}

func newPhotoClient(baseURL string, timeout time.Duration) *photoClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &photoClient{client: c}
}

func (p *photoClient) List(ctx context.Context, limit int, cursor string) (*model.PhotoPage, error) {
	req := p.client.R().SetContext(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}
	var page model.PhotoPage
	resp, err := req.SetResult(&page).Get("/photos")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *photoClient) Get(ctx context.Context, photoID string) (*model.PhotoPage, error) {
	var page model.PhotoPage
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("photoId", photoID).
		SetResult(&page).
		Get("/photos/{photoId}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &page, nil
}

// Upload reads each file and sends them as one upload request titled by file name.
func (p *photoClient) Upload(ctx context.Context, paths []string) ([]model.UploadResult, error) {
	req := model.UploadRequest{Photos: make([]model.UploadItem, 0, len(paths))}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		req.Photos = append(req.Photos, model.UploadItem{
			ImageBase64: base64.StdEncoding.EncodeToString(data),
			Title:       title,
		})
	}

	var out struct {
		Photos []model.UploadResult `json:"photos"`
	}
	resp, err := p.client.R().SetContext(ctx).SetBody(&req).SetResult(&out).Post("/photos")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Photos, nil
}

func (p *photoClient) Delete(ctx context.Context, albumID string, photoIDs []string) ([]model.DeleteOutcome, error) {
	var out []model.DeleteOutcome
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&model.DeleteRequest{AlbumID: albumID, PhotoIDs: photoIDs}).
		SetResult(&out).
		Post("/photos/delete")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("photo service request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(resp.Body(), &e) == nil && e.Message != "" {
			return fmt.Errorf("http %d: %s", resp.StatusCode(), e.Message)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
