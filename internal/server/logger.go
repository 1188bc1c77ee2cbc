// file: internal/server/logger.go
// version: 2.0.0
// guid: 1d2e3f4a-5b6c-7d8e-9f0a-1b2c3d4e5f6a

package server

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/voter-search/internal/server/middleware"
)

// OperationLogger tracks the lifecycle of a handler operation
type OperationLogger struct {
	handler    string
	method     string
	path       string
	startTime  time.Time
	requestID  string
	resourceID string
	details    map[string]any
}

// NewOperationLogger creates a new operation logger
func NewOperationLogger(handler, method, path, requestID string) *OperationLogger {
	return &OperationLogger{
		handler:   handler,
		method:    method,
		path:      path,
		startTime: time.Now(),
		requestID: requestID,
		details:   make(map[string]any),
	}
}

// operationLogger builds an OperationLogger from a gin request.
func operationLogger(handler string, c *gin.Context) *OperationLogger {
	return NewOperationLogger(handler, c.Request.Method, c.FullPath(), middleware.GetRequestID(c))
}

// SetResourceID sets the resource ID being operated on
func (ol *OperationLogger) SetResourceID(id string) {
	ol.resourceID = id
}

// AddDetail adds a contextual detail to the operation log
func (ol *OperationLogger) AddDetail(key string, value any) {
	ol.details[key] = value
}

// suffix renders resource and details in a stable order.
func (ol *OperationLogger) suffix() string {
	var b strings.Builder
	if ol.resourceID != "" {
		fmt.Fprintf(&b, " (resource: %s)", ol.resourceID)
	}
	if len(ol.details) > 0 {
		keys := make([]string, 0, len(ol.details))
		for k := range ol.details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, ol.details[k])
		}
		b.WriteString("}")
	}
	return b.String()
}

// LogStart logs the start of the operation
func (ol *OperationLogger) LogStart() {
	log.Printf("[INFO] [START] %s %s%s [request-id: %s]", ol.method, ol.path, ol.suffix(), ol.requestID)
}

// LogSuccess logs the successful completion of the operation
func (ol *OperationLogger) LogSuccess(statusCode int) {
	log.Printf("[INFO] [SUCCESS] %s %s (%d) in %v%s [request-id: %s]",
		ol.method, ol.path, statusCode, time.Since(ol.startTime), ol.suffix(), ol.requestID)
}

// LogError logs an error that occurred during the operation
func (ol *OperationLogger) LogError(statusCode int, err error) {
	log.Printf("[ERROR] %s %s (%d) in %v: %v%s [request-id: %s]",
		ol.method, ol.path, statusCode, time.Since(ol.startTime), err, ol.suffix(), ol.requestID)
}

// LogDebug logs a debug message
func (ol *OperationLogger) LogDebug(message string) {
	log.Printf("[DEBUG] %s: %s [request-id: %s]", ol.handler, message, ol.requestID)
}

// LogWarning logs a warning message
func (ol *OperationLogger) LogWarning(message string) {
	log.Printf("[WARN] %s: %s [request-id: %s]", ol.handler, message, ol.requestID)
}

// ServiceLogger provides logging for service layer operations
type ServiceLogger struct {
	serviceName string
	requestID   string
}

// NewServiceLogger creates a new service logger
func NewServiceLogger(serviceName, requestID string) *ServiceLogger {
	return &ServiceLogger{
		serviceName: serviceName,
		requestID:   requestID,
	}
}

// LogOperation logs the execution of a service operation
func (sl *ServiceLogger) LogOperation(operation string, details map[string]any) {
	detailStr := ""
	if len(details) > 0 {
		detailStr = fmt.Sprintf(" %v", details)
	}
	log.Printf("[SERVICE] %s.%s%s [request-id: %s]",
		sl.serviceName, operation, detailStr, sl.requestID)
}

// LogError logs an error from the service
func (sl *ServiceLogger) LogError(operation string, err error) {
	log.Printf("[SERVICE-ERROR] %s.%s: %v [request-id: %s]",
		sl.serviceName, operation, err, sl.requestID)
}
