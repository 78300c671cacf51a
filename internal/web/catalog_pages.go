package web

import (
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品一覧の1ページの件数
const productsPerPage = 12

type productsView struct {
	List       usecase.ProductListOutput
	Categories []model.Category
	Category   int64
	Sort       string
	PrevPage   int
	NextPage   int
}

func (p *Pages) home(c echo.Context) error {
	out, err := p.catalog.Home(c.Request().Context())
	if err != nil {
		return p.fail(c, err)
	}
	return p.render(c, http.StatusOK, "home.html", "Home", out)
}

// GET /products?category=&sort=&page=
func (p *Pages) products(c echo.Context) error {
	ctx := c.Request().Context()

	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}

	view := productsView{Sort: c.QueryParam("sort")}
	in := usecase.ListProductsInput{Page: page, Limit: productsPerPage, Sort: view.Sort}
	if v := c.QueryParam("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			in.CategoryID = &id
			view.Category = id
		}
	}
	//知らないsortは新着順
	switch in.Sort {
	case "new", "price_asc", "price_desc":
	default:
		in.Sort = ""
		view.Sort = ""
	}

	list, err := p.catalog.ListProducts(ctx, in)
	if err != nil {
		return p.fail(c, err)
	}
	cats, err := p.catalog.ListCategories(ctx)
	if err != nil {
		return p.fail(c, err)
	}

	view.List = list
	view.Categories = cats
	if page > 1 {
		view.PrevPage = page - 1
	}
	if int64(page*productsPerPage) < list.Total {
		view.NextPage = page + 1
	}
	return p.render(c, http.StatusOK, "products.html", "Products", view)
}

func (p *Pages) about(c echo.Context) error {
	return p.render(c, http.StatusOK, "about.html", "About", nil)
}

func (p *Pages) contacts(c echo.Context) error {
	return p.render(c, http.StatusOK, "contacts.html", "Contacts", nil)
}
