package dashboard

import (
	"context"
	"slices"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/api"
	"github.com/vango-dev/dashkit/pkg/auth/session"
	"github.com/vango-dev/dashkit/pkg/features/provider"
	"github.com/vango-dev/dashkit/pkg/features/resource"
	"github.com/vango-dev/dashkit/pkg/upload"
)

// GalleryContext provides the gallery slice.
var GalleryContext = provider.Create[*Gallery]("Gallery")

// UseGallery returns the gallery slice of the mounted dashboard.
func UseGallery(ctx context.Context) (*Gallery, error) {
	return GalleryContext.Use(ctx)
}

// Gallery is the provider's image gallery.
type Gallery struct {
	*resource.Resource[GalleryData]
	client   *api.Client
	identity session.Identity
	uploader upload.Uploader
	config   *upload.Config
}

func newGallery(scope *provider.Scope, deps *Deps) *Gallery {
	g := &Gallery{
		client:   deps.Client,
		identity: deps.Identity,
		uploader: deps.Uploader,
		config:   deps.Upload,
	}
	g.Resource = newResource(scope, deps, "gallery", "load gallery", g.fetch, GalleryData{Images: []string{}})
	return g
}

func (g *Gallery) fetch(ctx context.Context) (GalleryData, error) {
	const op = "load gallery"
	if err := requireUser(op, g.identity); err != nil {
		return GalleryData{}, err
	}
	var data GalleryData
	if err := g.client.Get(ctx, "/gallery/"+api.PathEscape(g.identity.UserID), &data); err != nil {
		return GalleryData{}, err
	}
	data.Images = nonNil(data.Images)
	return data, nil
}

// Upload checks every selected file, stores it with the uploader and
// records the resulting URLs with the backend. The selection is cleared
// only when everything succeeded; on failure it is kept for another try.
func (g *Gallery) Upload(ctx context.Context, sel *upload.Selection) ([]string, error) {
	const action = "upload images"
	var urls []string
	err := g.Mutate(ctx, action, func(ctx context.Context, cur GalleryData) (GalleryData, error) {
		if err := requireUser(action, g.identity); err != nil {
			return cur, err
		}
		if sel == nil || sel.Len() == 0 {
			return cur, dasherrors.Precondition(action, "no file selected")
		}
		if g.uploader == nil {
			return cur, dasherrors.Precondition(action, "image storage is not configured")
		}
		files := sel.Files()
		for _, f := range files {
			if err := g.config.Check(f); err != nil {
				return cur, err
			}
		}
		for _, f := range files {
			url, err := g.uploader.Upload(ctx, f)
			if err != nil {
				return cur, err
			}
			urls = append(urls, url)
		}

		body := map[string]any{"userId": g.identity.UserID, "images": urls}
		var saved GalleryData
		if err := g.client.Post(ctx, "/gallery", body, &saved); err != nil {
			return cur, err
		}
		if len(saved.Images) == 0 {
			saved = GalleryData{UserID: g.identity.UserID, Images: append(slices.Clone(cur.Images), urls...)}
		}
		return saved, nil
	})
	if err != nil {
		return nil, err
	}
	sel.Clear()
	return urls, nil
}

// DeleteImage removes one image by URL.
func (g *Gallery) DeleteImage(ctx context.Context, url string) error {
	const action = "delete image"
	return g.Mutate(ctx, action, func(ctx context.Context, cur GalleryData) (GalleryData, error) {
		if err := requireUser(action, g.identity); err != nil {
			return cur, err
		}
		if !slices.Contains(cur.Images, url) {
			return cur, dasherrors.Precondition(action, "image is not in the gallery")
		}
		path := "/gallery/" + api.PathEscape(g.identity.UserID) + "/images"
		if err := g.client.Delete(ctx, path, map[string]string{"imageUrl": url}, nil); err != nil {
			return cur, err
		}
		next := cur
		next.Images = slices.DeleteFunc(slices.Clone(cur.Images), func(u string) bool { return u == url })
		return next, nil
	})
}
