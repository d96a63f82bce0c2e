package config

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config carries everything the agent consumes but does not own: network
// identity, contract addresses, the signing key and the sync tunables.
type Config struct {
	ChainId         uint64
	RpcUrl          string
	ArenaAddress    common.Address
	ProfilesAddress common.Address
	RefereeAddress  common.Address
	PrivateKey      string
	Port            string

	PollInterval   time.Duration
	FetchWindow    uint64
	FetchThrottle  time.Duration
	RetryBackoff   time.Duration
	RetryAttempts  int
	RequestTimeout time.Duration

	VisibilityWindow time.Duration
	ShowHistory      bool

	NameBatchSize  int
	NameBatchPause time.Duration

	EmergencyClaimTimeout time.Duration
	EmergencyClaimMargin  time.Duration
}

func Load() (*Config, error) {
	setDefaults()

	cfg := &Config{
		ChainId:               viper.GetUint64("CHAIN_ID"),
		RpcUrl:                viper.GetString("RPC_URL"),
		PrivateKey:            viper.GetString("PRIVATE_KEY"),
		Port:                  viper.GetString("PORT"),
		PollInterval:          viper.GetDuration("POLL_INTERVAL"),
		FetchWindow:           viper.GetUint64("FETCH_WINDOW"),
		FetchThrottle:         viper.GetDuration("FETCH_THROTTLE"),
		RetryBackoff:          viper.GetDuration("RETRY_BACKOFF"),
		RetryAttempts:         viper.GetInt("RETRY_ATTEMPTS"),
		RequestTimeout:        viper.GetDuration("REQUEST_TIMEOUT"),
		VisibilityWindow:      viper.GetDuration("VISIBILITY_WINDOW"),
		ShowHistory:           viper.GetBool("SHOW_HISTORY"),
		NameBatchSize:         viper.GetInt("NAME_BATCH_SIZE"),
		NameBatchPause:        viper.GetDuration("NAME_BATCH_PAUSE"),
		EmergencyClaimTimeout: viper.GetDuration("EMERGENCY_CLAIM_TIMEOUT"),
		EmergencyClaimMargin:  viper.GetDuration("EMERGENCY_CLAIM_MARGIN"),
	}

	if cfg.RpcUrl == "" {
		return nil, errors.New("RPC_URL is required")
	}
	if cfg.ChainId == 0 {
		return nil, errors.New("CHAIN_ID is required")
	}

	arena := viper.GetString("ARENA_ADDRESS")
	if !common.IsHexAddress(arena) {
		return nil, errors.New("ARENA_ADDRESS is missing or not a hex address")
	}
	cfg.ArenaAddress = common.HexToAddress(arena)

	if profiles := viper.GetString("PROFILES_ADDRESS"); profiles != "" {
		if !common.IsHexAddress(profiles) {
			return nil, errors.New("PROFILES_ADDRESS is not a hex address")
		}
		cfg.ProfilesAddress = common.HexToAddress(profiles)
	}

	if referee := viper.GetString("REFEREE_ADDRESS"); referee != "" {
		if !common.IsHexAddress(referee) {
			return nil, errors.New("REFEREE_ADDRESS is not a hex address")
		}
		cfg.RefereeAddress = common.HexToAddress(referee)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("PORT", ":8080")
	viper.SetDefault("POLL_INTERVAL", "10s")
	viper.SetDefault("FETCH_WINDOW", 25)
	viper.SetDefault("FETCH_THROTTLE", "200ms")
	viper.SetDefault("RETRY_BACKOFF", "500ms")
	viper.SetDefault("RETRY_ATTEMPTS", 2)
	viper.SetDefault("REQUEST_TIMEOUT", "15s")
	viper.SetDefault("VISIBILITY_WINDOW", "300s")
	viper.SetDefault("SHOW_HISTORY", false)
	viper.SetDefault("NAME_BATCH_SIZE", 5)
	viper.SetDefault("NAME_BATCH_PAUSE", "250ms")
	viper.SetDefault("EMERGENCY_CLAIM_TIMEOUT", "24h")
	viper.SetDefault("EMERGENCY_CLAIM_MARGIN", "60s")
}
