package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/user"
)

type chatApi struct {
	svc      chat.ServiceInterface
	userSvc  user.ServiceInterface
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func registerChatAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc chat.ServiceInterface,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := chatApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the portal frontend is served from its own origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	dg := g.Group("/discussions", jwt)
	dg.POST("", api.post)
	dg.GET("/subject/:id", api.queryBySubject)
	dg.GET("/subject/:id/ws", api.stream)
}

// Handlers

// post persists a discussion message and broadcasts it to live subscribers.
// Author fields come from the authenticated user, never from the payload.
func (api *chatApi) post(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	data.AuthorID = usr.ID
	data.AuthorName = usr.Name
	data.AuthorRoles = usr.Roles

	msg, err := api.svc.Post(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "posting message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

func (api *chatApi) queryBySubject(ctx echo.Context) error {
	msgs, err := api.svc.QueryBySubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying messages by subject")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

// stream upgrades the connection and bridges one hub subscription onto it:
// every message posted to the subject's discussion is pushed as JSON. The
// subscription lives exactly as long as the connection.
func (api *chatApi) stream(ctx echo.Context) error {
	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading connection")
	}
	defer func() { _ = conn.Close() }()

	sub := api.svc.Subscribe(ctx.Param("id"))

	// reader pump: we never expect client frames, but reading is what
	// detects the peer going away
	go func() {
		defer sub.Cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for msg := range sub.C {
		if err := conn.WriteJSON(msg); err != nil {
			sub.Cancel()
			break
		}
	}
	return nil
}
