package speech

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionManager WebSocket连接管理器
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	mu          sync.RWMutex
}

// NewConnectionManager 创建连接管理器
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
	}
}

// AddConnection 添加连接，同名旧连接会被关闭
func (cm *ConnectionManager) AddConnection(key string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if oldConn, exists := cm.connections[key]; exists && oldConn != conn {
		oldConn.Close()
	}
	cm.connections[key] = conn
}

// RemoveConnection 移除并关闭连接
func (cm *ConnectionManager) RemoveConnection(key string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[key]; exists {
		conn.Close()
		delete(cm.connections, key)
	}
}

func (cm *ConnectionManager) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll 关闭所有连接
func (cm *ConnectionManager) CloseAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for key, conn := range cm.connections {
		conn.Close()
		delete(cm.connections, key)
	}
}

// ConnectionPoolOptions 连接池配置选项
type ConnectionPoolOptions struct {
	ConnectionTimeout time.Duration // 握手超时
	ReadTimeout       time.Duration // 读取超时，收到消息或 pong 后顺延
	WriteTimeout      time.Duration // 写入超时
	PingInterval      time.Duration // Ping间隔
	MaxRetries        int           // 最大重试次数
	RetryDelay        time.Duration // 第 n 次重试前等待 n*RetryDelay
}

// DefaultConnectionPoolOptions 默认连接池选项
func DefaultConnectionPoolOptions() *ConnectionPoolOptions {
	return &ConnectionPoolOptions{
		ConnectionTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      30 * time.Second,
		PingInterval:      20 * time.Second,
		MaxRetries:        3,
		RetryDelay:        time.Second,
	}
}

// ConnectionPool WebSocket连接池
type ConnectionPool struct {
	manager *ConnectionManager
	options *ConnectionPoolOptions
}

// NewConnectionPool 创建连接池
func NewConnectionPool(options *ConnectionPoolOptions) *ConnectionPool {
	if options == nil {
		options = DefaultConnectionPoolOptions()
	}

	return &ConnectionPool{
		manager: NewConnectionManager(),
		options: options,
	}
}

// ConnectWithRetry 带重试的连接建立。ping 循环随 ctx 结束。
func (cp *ConnectionPool) ConnectWithRetry(ctx context.Context, url string, header http.Header, key string) (*websocket.Conn, error) {
	var lastErr error

	for i := 0; i < cp.options.MaxRetries; i++ {
		conn, err := cp.connect(ctx, url, header, key)
		if err == nil {
			return conn, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		slog.Warn("stt stream dial failed, retrying", "attempt", i+1, "err", err)
		retryDelay := time.Duration(i+1) * cp.options.RetryDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d retries, last error: %w", cp.options.MaxRetries, lastErr)
}

// connect 建立单次连接
func (cp *ConnectionPool) connect(ctx context.Context, url string, header http.Header, key string) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: cp.options.ConnectionTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(cp.options.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cp.options.ReadTimeout))
	})

	cp.manager.AddConnection(key, conn)
	go cp.pingLoop(ctx, conn, key)

	return conn, nil
}

// pingLoop 定期发送ping消息。WriteControl 可与数据写入并发调用。
func (cp *ConnectionPool) pingLoop(ctx context.Context, conn *websocket.Conn, key string) {
	ticker := time.NewTicker(cp.options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(cp.options.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				slog.Debug("ping failed, dropping connection", "key", key, "err", err)
				cp.manager.RemoveConnection(key)
				return
			}
		}
	}
}

// Release 关闭并移除 key 对应的连接
func (cp *ConnectionPool) Release(key string) {
	cp.manager.RemoveConnection(key)
}

// Cleanup 清理连接池
func (cp *ConnectionPool) Cleanup() {
	cp.manager.CloseAll()
}

// IsClosedError 判断 err 是否表示对端已结束流
func IsClosedError(err error) bool {
	if err == nil {
		return false
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
	)
}
