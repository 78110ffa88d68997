package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dispatch-gateway/dispatch-gateway/a2a"
	"github.com/dispatch-gateway/dispatch-gateway/config"
	"github.com/dispatch-gateway/dispatch-gateway/gateway"
	l "github.com/dispatch-gateway/dispatch-gateway/logger"
)

// Router exposes the HTTP handlers of the dispatch gateway.
type Router interface {
	Mount(engine *gin.Engine, agentIDs []string) error
	HealthcheckHandler(c *gin.Context)
	NotFoundHandler(c *gin.Context)
}

type RouterImpl struct {
	cfg      config.Config
	logger   l.Logger
	registry *gateway.Registry
	store    gateway.TaskStore
	cards    map[string]*a2a.AgentCard
}

type ResponseJSON struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewRouter creates the gateway router. The registry must be fully populated
// before Mount is called; it is treated as read-only afterwards.
func NewRouter(cfg config.Config, logger l.Logger, registry *gateway.Registry, store gateway.TaskStore) *RouterImpl {
	return &RouterImpl{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		store:    store,
		cards:    make(map[string]*a2a.AgentCard),
	}
}

// Mount binds one sub-application per agent identifier: a card discovery
// endpoint and a JSON-RPC endpoint, both namespaced by the identifier.
// Mounting fails if any identifier has no registered executor factory, so a
// misconfigured agent list is caught before the server accepts requests.
func (router *RouterImpl) Mount(engine *gin.Engine, agentIDs []string) error {
	for _, agentID := range agentIDs {
		if _, err := router.registry.Resolve(agentID); err != nil {
			return err
		}

		card := a2a.BuildAgentCard(agentID, router.cfg.Dispatch.ExternalURL)
		router.cards[agentID] = card

		group := engine.Group("/" + agentID)
		group.GET("/.well-known/agent.json", router.AgentCardHandler(agentID))
		group.POST("/"+a2a.RPCPath, router.RPCHandler(agentID))

		router.logger.Info("mounted agent",
			"agent_id", agentID, "card_url", card.URL)
	}
	return nil
}

// AgentCardHandler serves the capability card built at mount time.
func (router *RouterImpl) AgentCardHandler(agentID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		card, ok := router.cards[agentID]
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Unknown agent"})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

// RPCHandler dispatches JSON-RPC requests for one agent.
func (router *RouterImpl) RPCHandler(agentID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request a2a.JSONRPCRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			router.rpcError(c, nil, a2a.CodeParseError, "Parse error", nil)
			return
		}

		switch request.Method {
		case "message/send":
			router.handleSendMessage(c, agentID, &request)
		case "tasks/get":
			router.handleGetTask(c, &request)
		case "tasks/cancel":
			router.handleCancelTask(c, agentID, &request)
		default:
			router.rpcError(c, request.ID, a2a.CodeMethodNotFound, "Method not found", request.Method)
		}
	}
}

// handleSendMessage creates a task, runs the agent's execution bridge under
// the dispatch deadline, and replies with the terminal task state.
func (router *RouterImpl) handleSendMessage(c *gin.Context, agentID string, request *a2a.JSONRPCRequest) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		router.rpcError(c, request.ID, a2a.CodeInvalidParams, "Invalid parameters", err.Error())
		return
	}
	if params.Message.MessageID == "" {
		router.rpcError(c, request.ID, a2a.CodeInvalidParams, "messageId is required in message", nil)
		return
	}

	taskID := uuid.NewString()
	if params.Message.TaskID != nil && *params.Message.TaskID != "" {
		taskID = *params.Message.TaskID
	}

	task := &a2a.Task{
		ID:        taskID,
		ContextID: uuid.NewString(),
		Status:    a2a.TaskStatus{State: a2a.TaskStateSubmitted},
		Metadata:  params.Metadata,
	}
	router.store.Save(task)

	executor, err := router.registry.Resolve(agentID)
	if err != nil {
		router.rpcError(c, request.ID, a2a.CodeInternalError, err.Error(), errKind(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), router.cfg.Dispatch.Timeout)
	defer cancel()

	queue := gateway.NewBufferedEventQueue(16)
	defer queue.Close()

	reqCtx := &gateway.RequestContext{
		TaskID:    taskID,
		ContextID: task.ContextID,
		Message:   &params.Message,
	}

	execErr := executor.Execute(ctx, reqCtx, queue)

	terminal := drainTerminalEvent(queue)
	if terminal != nil {
		if err := router.store.UpdateStatus(taskID, terminal.Status); err != nil {
			router.logger.Error("failed to persist task status", err, "task_id", taskID)
		}
		task.Status = terminal.Status
	}

	if execErr != nil {
		code, kind := rpcCode(execErr)
		router.rpcError(c, request.ID, code, execErr.Error(), kind)
		return
	}

	router.rpcResult(c, request.ID, task)
}

func (router *RouterImpl) handleGetTask(c *gin.Context, request *a2a.JSONRPCRequest) {
	var params a2a.TaskQueryParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		router.rpcError(c, request.ID, a2a.CodeInvalidParams, "Invalid parameters", err.Error())
		return
	}

	task, err := router.store.Get(params.ID)
	if err != nil {
		router.rpcError(c, request.ID, a2a.CodeTaskNotFound, "Task not found", params.ID)
		return
	}

	router.rpcResult(c, request.ID, task)
}

// handleCancelTask runs the bridge's cancel path, which always reports the
// operation as unsupported. The stored task keeps its current state.
func (router *RouterImpl) handleCancelTask(c *gin.Context, agentID string, request *a2a.JSONRPCRequest) {
	var params a2a.TaskIdParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		router.rpcError(c, request.ID, a2a.CodeInvalidParams, "Invalid parameters", err.Error())
		return
	}

	if _, err := router.store.Get(params.ID); err != nil {
		router.rpcError(c, request.ID, a2a.CodeTaskNotFound, "Task not found", params.ID)
		return
	}

	executor, err := router.registry.Resolve(agentID)
	if err != nil {
		router.rpcError(c, request.ID, a2a.CodeInternalError, err.Error(), errKind(err))
		return
	}

	queue := gateway.NewBufferedEventQueue(1)
	defer queue.Close()

	cancelErr := executor.Cancel(c.Request.Context(), &gateway.RequestContext{TaskID: params.ID}, queue)
	if cancelErr == nil {
		cancelErr = gateway.ErrCancellationUnsupported
	}

	code, kind := rpcCode(cancelErr)
	router.rpcError(c, request.ID, code, cancelErr.Error(), kind)
}

func (router *RouterImpl) HealthcheckHandler(c *gin.Context) {
	router.logger.Debug("healthcheck")
	c.JSON(http.StatusOK, ResponseJSON{Message: "OK"})
}

func (router *RouterImpl) NotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Requested route is not found"})
}

func (router *RouterImpl) rpcResult(c *gin.Context, id any, result any) {
	c.JSON(http.StatusOK, a2a.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// rpcError writes a JSON-RPC error response. Protocol errors travel as HTTP
// 200 with an error object.
func (router *RouterImpl) rpcError(c *gin.Context, id any, code int, message string, data any) {
	c.JSON(http.StatusOK, a2a.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &a2a.JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

// drainTerminalEvent returns the final event of the invocation, or nil when
// the executor produced none.
func drainTerminalEvent(queue *gateway.BufferedEventQueue) *a2a.TaskStatusUpdateEvent {
	var terminal *a2a.TaskStatusUpdateEvent
	for {
		select {
		case event := <-queue.Events():
			if event == nil {
				return terminal
			}
			terminal = event
			if event.Final {
				return terminal
			}
		default:
			return terminal
		}
	}
}

// rpcCode maps a dispatch failure onto its wire-level error code and kind tag.
func rpcCode(err error) (int, string) {
	switch {
	case errors.Is(err, gateway.ErrInvalidPayload):
		return a2a.CodeInvalidParams, "invalid_payload"
	case errors.Is(err, gateway.ErrBackendUnavailable):
		return a2a.CodeBackendUnavailable, "backend_unavailable"
	case errors.Is(err, gateway.ErrCancellationUnsupported):
		return a2a.CodeUnsupportedOperation, "cancellation_unsupported"
	case errors.Is(err, gateway.ErrNotRegistered):
		return a2a.CodeInternalError, "not_registered"
	default:
		return a2a.CodeInternalError, "internal"
	}
}

func errKind(err error) string {
	_, kind := rpcCode(err)
	return kind
}
