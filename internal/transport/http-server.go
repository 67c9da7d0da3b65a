package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nightowl-labs/linkvault-back/internal/config"
	"github.com/nightowl-labs/linkvault-back/internal/db"
	"github.com/nightowl-labs/linkvault-back/internal/meta"
	"github.com/nightowl-labs/linkvault-back/internal/service"
)

type (
	UserReq struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=12"`
	}

	TagRefReq struct {
		Name string `json:"name" validate:"required"`
	}

	CollectionRefReq struct {
		ID   *uint64 `json:"id"`
		Name string  `json:"name"`
	}

	LinkReq struct {
		URL         *string          `json:"url"`
		Name        string           `json:"name"`
		Description string           `json:"description"`
		Type        string           `json:"type"`
		Tags        []TagRefReq      `json:"tags" validate:"dive"`
		Collection  CollectionRefReq `json:"collection"`
		Image       string           `json:"image"`
	}

	LinkReqList struct {
		Tags []uint64 `json:"tags"`
	}

	TagResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}

	CollectionResp struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Color       string `json:"color,omitempty"`
		OwnerID     uint64 `json:"ownerId"`
	}

	CollectionReq struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Color       string `json:"color"`
	}

	LinkResp struct {
		ID           uint64          `json:"id"`
		URL          *string         `json:"url,omitempty"`
		Name         string          `json:"name"`
		Description  string          `json:"description"`
		Type         string          `json:"type"`
		Image        *string         `json:"image,omitempty"`
		CollectionID uint64          `json:"collectionId"`
		Collection   *CollectionResp `json:"collection,omitempty"`
		Tags         []TagResp       `json:"tags"`
	}

	CustomValidator struct {
		validator *validator.Validate
	}

	HTTPServer struct {
		db       *gorm.DB
		general  *service.General
		links    *service.Links
		resolver meta.Resolver
		logger   *zap.SugaredLogger
	}
)

func NewHTTPServer(
	lc fx.Lifecycle,
	cfg *config.Config,
	database *gorm.DB,
	general *service.General,
	links *service.Links,
	resolver meta.Resolver,
	logger *zap.SugaredLogger,
) *HTTPServer {
	e := echo.New()

	instance := HTTPServer{
		db:       database,
		general:  general,
		links:    links,
		resolver: resolver,
		logger:   logger,
	}

	instance.Route(e)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				listen := cfg.Host + ":" + cfg.Port
				if err := e.Start(listen); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal("shutting down the server")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server.")
			return e.Shutdown(ctx)
		},
	})

	return &instance
}

// Route registers handlers and middleware on an echo instance. Split
// out so tests can serve the handlers without an fx app.
func (s *HTTPServer) Route(e *echo.Echo) {
	e.POST("/auth/register", s.Register)
	e.POST("/auth/login", s.Login)
	e.DELETE("/auth/token", s.RevokeToken)

	linkG := e.Group("/link")
	linkG.POST("", s.LinkCreate)
	linkG.POST("/list", s.LinkList)
	linkG.DELETE("/:id", s.LinkDelete)
	linkG.GET("/test-meta", s.TestMeta)

	collectionG := e.Group("/collection")
	collectionG.GET("", s.CollectionGet)
	collectionG.POST("", s.CollectionCreate)

	e.GET("/tag", s.TagGet)

	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if len(reqBody) != 0 {
			s.logger.Debugw("request body", "path", c.Path(), "body", string(censorBody(reqBody)))
		}
	}))

	e.Use(s.AuthMiddleware)

	e.Validator = &CustomValidator{validator: validator.New()}

	echo.NotFoundHandler = func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	}
}

func (s *HTTPServer) Register(c echo.Context) error {
	u := UserReq{}
	if err := BindAndValidate(c, &u); err != nil {
		return err
	}

	token, err := s.general.Register(u.Email, u.Password)
	if err != nil {
		return err
	}
	resp := struct {
		Token string `json:"token"`
	}{
		Token: token,
	}
	return c.JSON(http.StatusOK, &resp)
}

func (s *HTTPServer) Login(c echo.Context) error {
	u := UserReq{}
	if err := BindAndValidate(c, &u); err != nil {
		return err
	}

	token, err := s.general.Login(u.Email, u.Password)
	if err != nil {
		if errors.Is(err, service.ErrLoginUserNotFound) || errors.Is(err, service.ErrLoginPasswordDoesNotMatch) {
			return c.NoContent(http.StatusUnauthorized)
		}
		return err
	}
	resp := struct {
		Token string `json:"token"`
	}{
		Token: token,
	}
	return c.JSON(http.StatusOK, &resp)
}

func (s *HTTPServer) RevokeToken(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.general.RevokeToken(user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *HTTPServer) LinkCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := LinkReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	tags := make([]service.TagRef, len(req.Tags))
	for i := range req.Tags {
		tags[i] = service.TagRef{Name: req.Tags[i].Name}
	}

	created, err := s.links.Create(c.Request().Context(), user.ID, &service.CreateLinkRequest{
		URL:         req.URL,
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		Tags:        tags,
		Collection: service.CollectionRef{
			ID:   req.Collection.ID,
			Name: req.Collection.Name,
		},
		Image: req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCollectionNotAccessible):
			return echo.NewHTTPError(http.StatusBadRequest, "Collection is not accessible.")
		case errors.Is(err, service.ErrLinkAlreadyExists):
			return echo.NewHTTPError(http.StatusConflict, "Link already exists")
		case errors.Is(err, service.ErrLinkLimitReached):
			return echo.NewHTTPError(http.StatusBadRequest, "Your subscription has reached the maximum number of links allowed.")
		}
		return err
	}

	return c.JSON(http.StatusOK, linkToResp(created))
}

func (s *HTTPServer) LinkList(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := LinkReqList{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	links, err := s.links.List(user.ID, req.Tags)
	if err != nil {
		return err
	}

	resp := make([]LinkResp, len(links))
	for i := range links {
		resp[i] = *linkToResp(&links[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) LinkDelete(c echo.Context) error {
	id, err := GetAndParseParam(c, "id")
	if err != nil {
		return err
	}
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	if err := s.links.Delete(id, user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// TestMeta is a debugging pass-through over the metadata resolver: one
// fetch, no side effects. A failing fetch degrades to empty metadata
// the same way link creation does.
func (s *HTTPServer) TestMeta(c echo.Context) error {
	url := c.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing url")
	}

	md, err := s.resolver.Resolve(c.Request().Context(), url)
	if err != nil {
		s.logger.Warnw("test-meta fetch failed", "url", url, "error", err)
		md = meta.Metadata{Headers: map[string]string{}}
	}
	return c.JSON(http.StatusOK, md)
}

func (s *HTTPServer) CollectionGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	collections, err := s.links.CollectionList(user.ID)
	if err != nil {
		return err
	}

	resp := make([]CollectionResp, len(collections))
	for i := range collections {
		resp[i] = *collectionToResp(&collections[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) CollectionCreate(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	req := CollectionReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	collection, err := s.links.CollectionCreate(user.ID, req.Name, req.Description, req.Color)
	if err != nil {
		if errors.Is(err, service.ErrCollectionNameEmpty) {
			return echo.NewHTTPError(http.StatusBadRequest, "collection name is empty")
		}
		return err
	}

	return c.JSON(http.StatusOK, collectionToResp(collection))
}

func (s *HTTPServer) TagGet(c echo.Context) error {
	user, err := GetUserFromContext(c)
	if err != nil {
		return err
	}

	tags, err := s.links.TagList(user.ID)
	if err != nil {
		return err
	}

	resp := make([]TagResp, len(tags))
	for i := range tags {
		resp[i] = TagResp{
			ID:   tags[i].ID,
			Name: tags[i].Name,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/auth/register" || c.Path() == "/auth/login" || c.Path() == "/ping" {
			return next(c)
		}
		token := ""
		for key, values := range c.Request().Header {
			if strings.ToLower(key) == "x-token" {
				token = values[0]
				break
			}
		}
		if token == "" {
			return c.NoContent(http.StatusUnauthorized)
		}
		user := db.User{}
		res := s.db.Where("token = ?", token).First(&user)
		if res.Error != nil {
			c.Logger().Error(errors.Wrap(res.Error, "find user in db"))
			return c.NoContent(http.StatusUnauthorized)
		}

		c.Set("user", &user)
		return next(c)
	}
}

////////

func linkToResp(l *db.Link) *LinkResp {
	tags := make([]TagResp, len(l.Tags))
	for i := range l.Tags {
		tags[i] = TagResp{
			ID:   l.Tags[i].ID,
			Name: l.Tags[i].Name,
		}
	}
	resp := LinkResp{
		ID:           l.ID,
		URL:          l.URL,
		Name:         l.Name,
		Description:  l.Description,
		Type:         l.Type,
		Image:        l.Image,
		CollectionID: l.CollectionID,
		Tags:         tags,
	}
	if l.Collection.ID != 0 {
		resp.Collection = collectionToResp(&l.Collection)
	}
	return &resp
}

func collectionToResp(c *db.Collection) *CollectionResp {
	return &CollectionResp{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		OwnerID:     c.OwnerID,
	}
}

// censorBody blanks out the password field before a request body is
// logged.
func censorBody(b []byte) []byte {
	m := map[string]interface{}{}
	if err := json.Unmarshal(b, &m); err != nil {
		return b
	}
	if _, ok := m["password"]; ok {
		m["password"] = "$censored"
	}
	out, err := json.Marshal(m)
	if err != nil {
		return b
	}
	return out
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return nil
}

func BindAndValidate(c echo.Context, v interface{}) error {
	var err error
	if err = c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err = c.Validate(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func GetUserFromContext(c echo.Context) (*db.User, error) {
	user, _ := c.Get("user").(*db.User)
	if user == nil {
		return nil, errors.New("no user found in context")
	}
	return user, nil
}

func GetParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if value == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid path param 'id'")
	}
	return value, nil
}

func GetAndParseParam(c echo.Context, name string) (uint64, error) {
	v, e := GetParam(c, name)
	if e != nil {
		return 0, e
	}
	vv, e := strconv.ParseUint(v, 10, 64)
	if e != nil {
		return 0, e
	}
	return vv, nil
}
