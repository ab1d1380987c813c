package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaults() {
	conf, err := loadConfig([]string{"-d", "postgres://localhost/wallet", "-j", "secret"}, "")
	s.Require().NoError(err)

	s.Equal(defaultRunAddress, conf.RunAddress)
	s.Equal(defaultMigrationsDir, conf.MigrationsDir)
	s.Equal("PHP", conf.Currency)
	s.False(conf.InMemory)
	s.Equal(30*time.Second, conf.ReconcileInterval)
	s.Equal(uint(4), conf.ReconcileWorkers)
}

func (s *ConfigTestSuite) TestEnvWins() {
	s.T().Setenv("RUN_ADDRESS", ":9000")
	s.T().Setenv("RECONCILE_INTERVAL", "5s")
	s.T().Setenv("RECONCILE_WORKERS", "8")

	conf, err := loadConfig([]string{"-a", ":8000", "-d", "dsn", "-j", "secret", "-rw", "2"}, "")
	s.Require().NoError(err)

	s.Equal(":9000", conf.RunAddress)
	s.Equal(5*time.Second, conf.ReconcileInterval)
	s.Equal(uint(8), conf.ReconcileWorkers)
}

func (s *ConfigTestSuite) TestInMemoryWithoutDSN() {
	s.T().Setenv("IN_MEMORY", "true")

	conf, err := loadConfig([]string{"-j", "secret"}, "")
	s.Require().NoError(err)
	s.True(conf.InMemory)
	s.Empty(conf.DatabaseDSN)
}

func (s *ConfigTestSuite) TestValidation() {
	cases := []struct {
		name string
		args []string
	}{
		{name: "no dsn", args: []string{"-j", "secret"}},
		{name: "no jwt secret", args: []string{"-d", "dsn"}},
		{name: "bad currency", args: []string{"-d", "dsn", "-j", "secret", "-c", "peso"}},
		{name: "zero workers", args: []string{"-d", "dsn", "-j", "secret", "-rw", "0"}},
		{name: "unknown flag", args: []string{"-d", "dsn", "-j", "secret", "-x"}},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			_, err := loadConfig(t.args, "")
			s.Error(err)
		})
	}
}

func (s *ConfigTestSuite) TestDotenv() {
	for _, key := range []string{"JWT_SECRET", "CURRENCY"} {
		if _, ok := os.LookupEnv(key); ok {
			s.T().Skipf("%s is set in the environment", key)
		}
	}
	s.T().Cleanup(func() {
		_ = os.Unsetenv("JWT_SECRET")
		_ = os.Unsetenv("CURRENCY")
	})

	path := filepath.Join(s.T().TempDir(), ".env")
	s.Require().NoError(os.WriteFile(path, []byte("JWT_SECRET=from-file\nCURRENCY=USD\n"), 0o600))

	conf, err := loadConfig([]string{"-d", "dsn"}, path)
	s.Require().NoError(err)
	s.Equal("from-file", conf.JWTUserSecret)
	s.Equal("USD", conf.Currency)

	_, err = loadConfig([]string{"-d", "dsn", "-j", "x"}, filepath.Join(s.T().TempDir(), "missing.env"))
	s.Require().NoError(err)
}
