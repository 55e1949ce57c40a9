package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

const dbDialTimeout = 10 * time.Second

// DSNValue returns the explicit dsn, or a MySQL DSN built from the
// normalized fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if c.DSN != "" {
		return c.DSN
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.User = c.User
	mc.Passwd = c.Password
	mc.DBName = c.Name
	mc.ParseTime = c.ParseTime
	mc.Loc = dsnLocation(c.Loc)
	mc.Timeout = dbDialTimeout
	mc.Params = cleanParams(c.Params)
	mc.Params["charset"] = c.Charset
	return mc.FormatDSN()
}

// dsnLocation maps the loc setting to a zone; unknown names mean Local.
func dsnLocation(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.Local
}

// URLValue returns the explicit url, or a redis:// (rediss:// with TLS) URL
// built from the normalized fields.
func (c RedisRuntimeConfig) URLValue() string {
	if c.URL != "" {
		return c.URL
	}

	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	u := neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(db),
	}
	if c.TLS {
		u.Scheme = "rediss"
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}

	query := neturl.Values{}
	for k, v := range cleanParams(c.Params) {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()
	return u.String()
}
