package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/auth"
	"schoolattend/internal/checkin"
	"schoolattend/internal/metrics"
	"schoolattend/internal/queue"
)

func (s *Server) registerKiosk(c *gin.Context) {
	var req struct {
		KioskID string `json:"kiosk_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.UpsertKiosk(c.Request.Context(), req.KioskID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := auth.Issue(req.KioskID, "kiosk", s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL, s.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	_ = s.store.SaveRefreshToken(c.Request.Context(), req.KioskID, tokens.RefreshToken, tokens.RefreshExp)

	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// issueQR creates a fresh check-in token wrapped in the scan payload. Each
// call replaces whatever the kiosk was displaying; tokens are never stored.
func (s *Server) issueQR(c *gin.Context) {
	var req struct {
		StaffID string `json:"staff_id"`
	}
	// Body is optional; a payload without a staff hint is valid.
	_ = c.ShouldBindJSON(&req)

	token := checkin.Issue()
	exp := time.Now().Add(s.cfg.DisplayTTL).UnixMilli()
	payload := checkin.BuildPayload(s.cfg.PublicBaseURL, token, checkin.NormalizeStaffID(req.StaffID), exp)

	metrics.TokensIssued.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"payload":             payload,
		"display_ttl_seconds": int(s.cfg.DisplayTTL.Seconds()),
	})
}

func (s *Server) decodePayload(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, checkin.Decode(req.Text))
}

func (s *Server) checkIn(c *gin.Context) {
	var req struct {
		StaffID string `json:"staffId"`
		Token   string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.svc.CheckIn(c.Request.Context(), req.StaffID, req.Token)
	if err != nil {
		status := http.StatusInternalServerError
		outcome := metrics.OutcomeError
		switch {
		case errors.Is(err, checkin.ErrMissingField),
			errors.Is(err, checkin.ErrTokenFormat),
			errors.Is(err, checkin.ErrTokenTimestamp),
			errors.Is(err, checkin.ErrTokenExpired):
			status = http.StatusBadRequest
			outcome = metrics.OutcomeRejected
		case errors.Is(err, checkin.ErrStaffNotFound):
			status = http.StatusNotFound
			outcome = metrics.OutcomeRejected
		}
		metrics.CheckInAttempts.WithLabelValues(outcome).Inc()
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if res.Created {
		metrics.CheckInAttempts.WithLabelValues(metrics.OutcomeRecorded).Inc()
		s.publishCheckIn(c, res.Record)
	} else {
		metrics.CheckInAttempts.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	}

	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}

func (s *Server) publishCheckIn(c *gin.Context, rec checkin.Record) {
	if s.queue == nil {
		return
	}
	body, _ := json.Marshal(queue.CheckInEvent{
		RecordID: rec.ID,
		StaffID:  rec.StaffID,
		Day:      rec.Day.Format("2006-01-02"),
	})
	if err := s.queue.Publish(c.Request.Context(), queue.Message{Type: "checkin", Body: body}); err != nil {
		log.Printf("queue publish failed: %v", err)
	}
}

func (s *Server) listAttendance(c *gin.Context) {
	f := checkin.RecordFilter{
		StaffID: checkin.NormalizeStaffID(c.Query("staff_id")),
		Limit:   50,
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Offset = parsed
		}
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		f.From = t.UTC()
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		f.To = t.UTC()
	}

	records, err := s.store.ListRecords(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// daySummary reads the per-day counters the worker maintains in Redis.
func (s *Server) daySummary(c *gin.Context) {
	if s.rdb == nil || s.rdb.Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary not available"})
		return
	}
	day := c.Query("day")
	if day == "" {
		day = checkin.DayStartUTC(time.Now()).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be YYYY-MM-DD"})
		return
	}

	fields, err := s.rdb.Client.HGetAll(c.Request.Context(), "attendance:summary:"+day).Result()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"day": day, "summary": fields})
}

func (s *Server) upsertStaff(c *gin.Context) {
	var req struct {
		StaffID    string  `json:"staff_id" binding:"required"`
		Name       *string `json:"name"`
		Email      *string `json:"email"`
		Department *string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := s.store.UpsertStaff(c.Request.Context(), checkin.Staff{
		StaffID:    checkin.NormalizeStaffID(req.StaffID),
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": st})
}

func (s *Server) listStaff(c *gin.Context) {
	staff, err := s.store.ListStaff(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

func (s *Server) getStaff(c *gin.Context) {
	id := checkin.NormalizeStaffID(c.Param("id"))
	st, err := s.store.FindStaff(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "staff not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": st})
}
