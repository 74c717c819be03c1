package db

import (
	"database/sql"
	"fmt"
	"time"

	"ad_insight_agent/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Open 按数据源类型打开数据库连接池
func Open(cfg *config.Config) (*sql.DB, error) {
	switch cfg.DataSource.Type {
	case config.DataSourceMySQL:
		return OpenMySQL(cfg)
	case config.DataSourceSQLite:
		return OpenSQLite(cfg.DataSource.SQLite)
	default:
		return nil, fmt.Errorf("数据源类型 %q 不使用数据库", cfg.DataSource.Type)
	}
}

// OpenMySQL 使用配置初始化 MySQL 连接池
func OpenMySQL(cfg *config.Config) (*sql.DB, error) {
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("MySQL DSN 未配置")
	}
	conn, err := sql.Open("mysql", cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	// 从配置读取连接池参数，提供默认值保护
	maxOpenConns := cfg.DB.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 20
	}
	maxIdleConns := cfg.DB.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	connMaxLifetime := cfg.DB.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 60 // 分钟
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}
	return conn, nil
}

// OpenSQLite 打开 SQLite 文件（空路径为内存库）
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// 内存库每个连接独立，限制为单连接保证可见性
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("打开SQLite失败: %w", err)
	}
	return conn, nil
}
