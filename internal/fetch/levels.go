package fetch

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"git.lost.host/meutraa/bandori/internal/convert"
	"git.lost.host/meutraa/bandori/internal/game"
	"git.lost.host/meutraa/bandori/internal/parser"
)

// Prefix is added to the names of converted levels.
const Prefix = "bandori"

// Item is a level as listed by a Sonolus server.
type Item struct {
	Name        string     `json:"name"`
	Version     int        `json:"version"`
	Rating      int        `json:"rating"`
	Title       string     `json:"title"`
	Artists     string     `json:"artists"`
	Author      string     `json:"author"`
	Description string     `json:"description,omitempty"`
	Tags        []game.Tag `json:"tags"`
	Cover       *Resource  `json:"cover"`
	Bgm         *Resource  `json:"bgm"`
	Preview     *Resource  `json:"preview,omitempty"`
	Data        *Resource  `json:"data"`
}

type Resource struct {
	Hash string `json:"hash,omitempty"`
	URL  string `json:"url"`
}

type itemDetails struct {
	Item Item `json:"item"`
}

type itemList struct {
	PageCount int    `json:"pageCount"`
	Items     []Item `json:"items"`
}

// LevelItem fetches a single level item by name.
func (c *Client) LevelItem(ctx context.Context, base, name string) (*Item, error) {
	u, err := Resolve(base, "sonolus/levels/"+url.PathEscape(name)+"?localization=en")
	if nil != err {
		return nil, err
	}
	var details itemDetails
	if err := c.GetJSON(ctx, u, &details); nil != err {
		return nil, err
	}
	return &details.Item, nil
}

// ListLevels fetches every page of the level list.
func (c *Client) ListLevels(ctx context.Context, base string) ([]Item, error) {
	u, err := Resolve(base, "sonolus/levels/list?localization=en")
	if nil != err {
		return nil, err
	}
	items := []Item{}
	for page := 0; ; page++ {
		var list itemList
		if err := c.GetJSON(ctx, u+"&page="+strconv.Itoa(page), &list); nil != err {
			return nil, err
		}
		items = append(items, list.Items...)
		if page+1 >= list.PageCount {
			return items, nil
		}
	}
}

// ConvertItem downloads the assets of an item and converts its level data.
// tag, when not empty, is added to the tags of the item.
func (c *Client) ConvertItem(ctx context.Context, base string, item *Item, tag string) (*game.LevelPackage, error) {
	if nil == item.Data || nil == item.Bgm {
		return nil, errors.Wrapf(ErrAssetFetch, "%v: item has no data or bgm", item.Name)
	}

	pkg := &game.LevelPackage{
		Name:        Prefix + "-" + item.Name,
		Rating:      item.Rating,
		Title:       item.Title,
		Artists:     item.Artists,
		Author:      item.Author,
		Description: item.Description,
		Tags:        append([]game.Tag{}, item.Tags...),
	}
	if tag != "" {
		pkg.Tags = append(pkg.Tags, game.Tag{Title: tag})
	}

	var err error
	if nil != item.Cover {
		if pkg.Cover, err = c.asset(ctx, base, item.Cover.URL); nil != err {
			return nil, err
		}
	}
	if pkg.Bgm, err = c.asset(ctx, base, item.Bgm.URL); nil != err {
		return nil, err
	}
	if nil != item.Preview {
		if pkg.Preview, err = c.asset(ctx, base, item.Preview.URL); nil != err {
			return nil, err
		}
	}

	data, err := c.asset(ctx, base, strings.TrimPrefix(item.Data.URL, "/"))
	if nil != err {
		return nil, err
	}
	p := &parser.DefaultParser{}
	doc, err := p.Parse(bytes.NewReader(data))
	if nil != err {
		return nil, errors.Wrapf(err, "level %v", item.Name)
	}
	if pkg.Data, err = convert.Convert(doc); nil != err {
		return nil, errors.Wrapf(err, "level %v", item.Name)
	}
	return pkg, nil
}

func (c *Client) asset(ctx context.Context, base, ref string) ([]byte, error) {
	u, err := Resolve(base, ref)
	if nil != err {
		return nil, err
	}
	return c.GetBytes(ctx, u)
}
