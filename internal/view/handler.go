package view

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kollektive-hackathon/arbiter-agent/internal/arena"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/ws"
	"github.com/kollektive-hackathon/arbiter-agent/internal/profile"
)

type viewHandler struct {
	engine     *arena.Engine
	pipeline   *arena.Pipeline
	names      *profile.Resolver
	hub        *ws.NotificationHub
	claimAfter time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func RegisterRoutes(rg *gin.RouterGroup, cfg *config.Config, engine *arena.Engine, pipeline *arena.Pipeline, names *profile.Resolver, hub *ws.NotificationHub) {
	handler := viewHandler{
		engine:     engine,
		pipeline:   pipeline,
		names:      names,
		hub:        hub,
		claimAfter: cfg.EmergencyClaimTimeout + cfg.EmergencyClaimMargin,
	}

	routes := rg.Group("/arena")
	routes.GET("/matches", handler.getMatches)
	routes.POST("/matches", handler.createMatch)
	routes.POST("/matches/:id/join", handler.joinMatch)
	routes.POST("/matches/:id/cancel", handler.cancelMatch)
	routes.POST("/matches/:id/claim", handler.claimMatch)
	routes.POST("/withdraw", handler.withdraw)
	routes.GET("/balance", handler.getBalance)
	routes.GET("/status", handler.getStatus)
	routes.POST("/history", handler.toggleHistory)
	routes.GET("/profile/:address", handler.getProfile)
	routes.PUT("/profile/name", handler.setName)
	routes.GET("/ws/:topic", handler.serveWs)
}

// MatchView decorates a ledger record with everything the caller would
// otherwise have to derive: display names, decimal stake and the local
// action eligibility flags for the connected account.
type MatchView struct {
	arena.Match
	Stake         string `json:"stake"`
	CreatorName   string `json:"creatorName"`
	OpponentName  string `json:"opponentName"`
	WinnerName    string `json:"winnerName"`
	CanCancel     bool   `json:"canCancel"`
	ClaimEligible bool   `json:"claimEligible"`
}

func (vh *viewHandler) decorate(c *gin.Context, matches []arena.Match) []MatchView {
	addrs := make([]common.Address, 0, len(matches)*3)
	for _, m := range matches {
		addrs = append(addrs, m.Creator, m.Opponent, m.Winner)
	}
	resolved := vh.names.ResolveAll(c.Request.Context(), addrs)

	account := vh.engine.Account()
	now := time.Now()

	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{
			Match:         m,
			Stake:         m.StakeDecimal(),
			CreatorName:   resolved[m.Creator],
			OpponentName:  resolved[m.Opponent],
			WinnerName:    resolved[m.Winner],
			CanCancel:     m.CanCancel(account),
			ClaimEligible: m.EmergencyClaimEligible(now, vh.claimAfter),
		})
	}
	return views
}

func (vh *viewHandler) getMatches(c *gin.Context) {
	c.JSON(http.StatusOK, vh.decorate(c, vh.engine.Matches()))
}

type CreateMatchRequest struct {
	Stake string `json:"stake"`
	Guess int    `json:"guess"`
}

func (vh *viewHandler) createMatch(c *gin.Context) {
	body := CreateMatchRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	receipt, err := vh.pipeline.CreateMatch(c.Request.Context(), body.Stake, body.Guess)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (vh *viewHandler) joinMatch(c *gin.Context) {
	matchId, parseErr := strconv.ParseUint(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, reject.RequestParamsProblem())
		return
	}

	body := CreateMatchRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	receipt, err := vh.pipeline.JoinMatch(c.Request.Context(), matchId, body.Stake, body.Guess)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (vh *viewHandler) cancelMatch(c *gin.Context) {
	matchId, parseErr := strconv.ParseUint(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, reject.RequestParamsProblem())
		return
	}

	receipt, err := vh.pipeline.CancelMatch(c.Request.Context(), matchId)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (vh *viewHandler) claimMatch(c *gin.Context) {
	matchId, parseErr := strconv.ParseUint(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, reject.RequestParamsProblem())
		return
	}

	receipt, err := vh.pipeline.EmergencyClaim(c.Request.Context(), matchId)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (vh *viewHandler) withdraw(c *gin.Context) {
	receipt, err := vh.pipeline.Withdraw(c.Request.Context())
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

type BalanceResponse struct {
	Account common.Address `json:"account"`
	Pending string         `json:"pending"`
}

func (vh *viewHandler) getBalance(c *gin.Context) {
	c.JSON(http.StatusOK, BalanceResponse{
		Account: vh.engine.Account(),
		Pending: arena.FormatStake(vh.engine.Balance()),
	})
}

func (vh *viewHandler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, vh.engine.Status())
}

type ToggleHistoryRequest struct {
	Enabled bool `json:"enabled"`
}

func (vh *viewHandler) toggleHistory(c *gin.Context) {
	body := ToggleHistoryRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	c.JSON(http.StatusOK, vh.decorate(c, vh.engine.SetShowHistory(body.Enabled)))
}

type ProfileResponse struct {
	Address common.Address `json:"address"`
	Name    string         `json:"name"`
}

func (vh *viewHandler) getProfile(c *gin.Context) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, reject.RequestParamsProblem())
		return
	}
	addr := common.HexToAddress(raw)

	c.JSON(http.StatusOK, ProfileResponse{
		Address: addr,
		Name:    vh.names.ResolveName(c.Request.Context(), addr),
	})
}

type SetNameRequest struct {
	Name string `json:"name"`
}

func (vh *viewHandler) setName(c *gin.Context) {
	body := SetNameRequest{}
	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	receipt, err := vh.names.SetName(c.Request.Context(), body.Name)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func validTopic(topic string) bool {
	switch topic {
	case arena.TopicMatches, arena.TopicBalance, arena.TopicActions:
		return true
	}
	return false
}

func (vh *viewHandler) serveWs(c *gin.Context) {
	topic := c.Param("topic")
	if !validTopic(topic) {
		c.JSON(http.StatusNotFound, reject.RequestParamsProblem())
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Error upgrading ws connection")
		return
	}
	defer vh.hub.UnregisterListener(topic, conn)

	vh.hub.RegisterListener(topic, conn)

	for {
		var buffer any
		if err := conn.ReadJSON(&buffer); err != nil {
			return
		}
	}
}
