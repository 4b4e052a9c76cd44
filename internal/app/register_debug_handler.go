// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/accel_capture/internal/adxl345"
	"github.com/relabs-tech/accel_capture/internal/bus"
	"github.com/relabs-tech/accel_capture/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// RunRegisterDebug serves the browser register debug tool: a WebSocket
// for raw register access plus a REST endpoint for live samples.
func RunRegisterDebug() error {
	cfg := config.Get()

	b, err := bus.OpenI2C(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer b.Close()

	drv, err := newDriver(b, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize accelerometer: %w", err)
	}

	srv := NewRegisterDebugServer(drv)

	http.HandleFunc("/ws", srv.HandleWS)

	// API endpoint for live acceleration data
	http.HandleFunc("/api/sample", srv.HandleSample)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})

	addr := fmt.Sprintf(":%d", cfg.RegisterDebugPort)
	log.Printf("register debug tool listening on %s", addr)
	log.Printf("open http://localhost%s in your browser", addr)
	return http.ListenAndServe(addr, nil)
}

// RegisterDebugServer exposes raw register access to the browser tool
// over a WebSocket. Writes are restricted to the configured address
// ranges so reserved registers stay untouched.
type RegisterDebugServer struct {
	drv *adxl345.Driver
}

func NewRegisterDebugServer(drv *adxl345.Driver) *RegisterDebugServer {
	return &RegisterDebugServer{drv: drv}
}

// registerDebugSession holds WebSocket connection state for one client.
type registerDebugSession struct {
	conn *websocket.Conn
	drv  *adxl345.Driver
}

// RegisterResponse is the envelope for every server→client message.
type RegisterResponse struct {
	Type        string                 `json:"type"` // "register_data", "register_map", "status", "error"
	Address     string                 `json:"addr,omitempty"`
	Value       string                 `json:"value,omitempty"`
	Registers   map[string]string      `json:"registers,omitempty"` // for bulk read
	Timestamp   string                 `json:"timestamp,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Status      string                 `json:"status,omitempty"`
	RegisterMap []adxl345.RegisterInfo `json:"register_map,omitempty"`
}

// RegisterConfigFile is the JSON structure for exported register dumps.
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// HandleWS handles the WebSocket connection for register debugging.
func (srv *RegisterDebugServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &registerDebugSession{conn: conn, drv: srv.drv}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var rawMsg map[string]interface{}
		err := conn.ReadJSON(&rawMsg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			session.sendError("missing or invalid action field")
			continue
		}

		switch action {
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(rawMsg)
		case "read_all":
			session.handleReadAll()
		case "write":
			session.handleWrite(rawMsg)
		case "export_config":
			session.handleExportConfig()
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

func (s *registerDebugSession) handleRead(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	if addr == "" {
		s.sendError("missing addr field")
		return
	}

	var addrByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}

	value, err := s.drv.ReadRegister(addrByte)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.conn.WriteJSON(resp)
}

func (s *registerDebugSession) handleReadAll() {
	registers, err := s.drv.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Registers: regMap,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.conn.WriteJSON(resp)
}

func (s *registerDebugSession) handleWrite(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	valueStr, _ := rawMsg["value"].(string)

	if addr == "" || valueStr == "" {
		s.sendError("missing addr or value field")
		return
	}

	var addrByte, valueByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	if _, err := fmt.Sscanf(valueStr, "0x%X", &valueByte); err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}

	cfg := config.Get()
	if !isRegisterWritable(addrByte, cfg.RegisterDebugAllowedRanges) {
		s.sendError(fmt.Sprintf("register 0x%02X not in allowed write ranges", addrByte))
		return
	}

	if err := s.drv.WriteRegister(addrByte, valueByte); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     valueStr,
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "write successful",
	}
	s.conn.WriteJSON(resp)
}

func (s *registerDebugSession) handleExportConfig() {
	registers, err := s.drv.ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	configFile := RegisterConfigFile{
		Version:   1,
		Device:    "adxl345",
		Timestamp: time.Now().Format(time.RFC3339),
		Registers: regMap,
	}

	configJSON, _ := json.Marshal(configFile)
	rawResp := map[string]interface{}{
		"type":     "export_config",
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("adxl345_%s_registers.json", time.Now().Format("20060102_150405")),
	}
	s.conn.WriteJSON(rawResp)
}

func (s *registerDebugSession) sendRegisterMap() error {
	resp := RegisterResponse{
		Type:        "register_map",
		RegisterMap: adxl345.GetRegisterMap(),
	}
	return s.conn.WriteJSON(resp)
}

func (s *registerDebugSession) sendError(message string) {
	resp := RegisterResponse{
		Type:    "error",
		Message: message,
	}
	s.conn.WriteJSON(resp)
}

// HandleSample serves one live acceleration sample via REST API.
func (srv *RegisterDebugServer) HandleSample(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	s, err := srv.drv.ReadSample()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	scale := srv.drv.ScaleG()
	out := struct {
		X  int16   `json:"x"`
		Y  int16   `json:"y"`
		Z  int16   `json:"z"`
		XG float64 `json:"x_g"`
		YG float64 `json:"y_g"`
		ZG float64 `json:"z_g"`
	}{
		X: s.X, Y: s.Y, Z: s.Z,
		XG: float64(s.X) * scale,
		YG: float64(s.Y) * scale,
		ZG: float64(s.Z) * scale,
	}
	json.NewEncoder(w).Encode(out)
}

// defaultWritableRanges covers the documented writable registers; the
// reserved block 0x01-0x1C and the data registers stay read-only.
const defaultWritableRanges = "0x1D-0x2A,0x2C-0x2F,0x31,0x38"

// isRegisterWritable checks if a register address is in the allowed
// write ranges, given as "0x1D-0x2A,0x2C" style.
func isRegisterWritable(addr byte, allowedRanges string) bool {
	if allowedRanges == "" {
		allowedRanges = defaultWritableRanges
	}
	for _, part := range strings.Split(allowedRanges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lowStr, highStr, isRange := strings.Cut(part, "-")
		low, err := strconv.ParseUint(strings.TrimSpace(lowStr), 0, 8)
		if err != nil {
			continue
		}
		high := low
		if isRange {
			high, err = strconv.ParseUint(strings.TrimSpace(highStr), 0, 8)
			if err != nil {
				continue
			}
		}
		if uint64(addr) >= low && uint64(addr) <= high {
			return true
		}
	}
	return false
}
