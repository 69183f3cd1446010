package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before a handler. It can derive a new context (for
// example, attaching the authenticated user id) or reject the request.
type MiddlewareFunc func(ctx context.Context, r *http.Request) (context.Context, error)

type Router struct {
	Inner gin.IRouter

	rootCtx     context.Context
	middlewares []MiddlewareFunc
}

// New creates a router whose handlers inherit from ctx. The context must
// carry the database, configs and logger via xcontext.
func New(ctx context.Context) *Router {
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{
		Inner:   engine,
		rootCtx: ctx,
	}
}

// Branch creates a router sharing the same underlying engine but with an
// independent middleware chain.
func (r *Router) Branch() *Router {
	return &Router{
		Inner:       r.Inner,
		rootCtx:     r.rootCtx,
		middlewares: append([]MiddlewareFunc{}, r.middlewares...),
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.middlewares = append(r.middlewares, middleware)
}

func (r *Router) Handler() http.Handler {
	return r.Inner.(*gin.Engine)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		var req Request
		var err error
		switch method {
		case http.MethodGet:
			err = ginCtx.ShouldBindQuery(&req)
		case http.MethodPost:
			err = ginCtx.ShouldBindJSON(&req)
		}
		if err != nil {
			ginCtx.JSON(http.StatusOK, newErrorResponse(err))
			return
		}

		ctx := router.rootCtx
		for _, middleware := range router.middlewares {
			ctx, err = middleware(ctx, ginCtx.Request)
			if err != nil {
				ginCtx.JSON(http.StatusOK, newErrorResponse(err))
				return
			}
		}

		resp, err := handler(ctx, &req)
		if err != nil {
			ginCtx.JSON(http.StatusOK, newErrorResponse(err))
			return
		}

		ginCtx.JSON(http.StatusOK, newResponse(resp))
	}
}
