package main

import (
	"context"
	"fmt"
	"inspector/config"
	"inspector/internal/command"
	"inspector/internal/log"
	"inspector/utils/path"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	rootPath = path.RootPath()
	envPath  string
	yamlPath string
	conf     *config.Configuration
	logger   *zap.Logger
	logLevel zap.AtomicLevel
	vp       *viper.Viper
	useFile  bool
)

func init() {
	pflag.StringVarP(&envPath, "env", "e", "", "Environment file, e.g. --env .env")
	pflag.StringVarP(&yamlPath, "config", "c", "", "YAML config file, e.g. --config config.yaml")
	// 子命令自己的 flag 交給 cobra 解析
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	pflag.Parse()

	cobra.OnInitialize(func() {
		if envPath != "" && yamlPath != "" {
			fmt.Println("同時指定 --env 與 --config，將以 --env 優先")
		}
		initConfig()
		initLogger()
		watchConfig()
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "app",
		Short: "HTTP request inspector",
		Run: func(cmd *cobra.Command, args []string) {
			defer logger.Sync()
			app, cleanup, err := wireApp(conf, logger)
			if err != nil {
				panic(err)
			}
			defer cleanup()

			logger.Info("start app ...")
			if err := app.Run(); err != nil {
				logger.Error("start app failed", zap.Error(err))
				return
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err, ok := <-app.Failed():
				if ok {
					logger.Error("http server failed", zap.Error(err))
				}
			}

			logger.Info("shutdown app ...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := app.Stop(ctx); err != nil {
				logger.Warn("shutdown app incomplete", zap.Error(err))
			}
		},
	}

	command.Register(rootCmd, func() (*command.Command, func(), error) {
		return wireCommand(conf, logger)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogger() {
	l, level, err := log.NewLogger(conf)
	if err != nil {
		panic(fmt.Errorf("init logger failed: %w", err))
	}
	logger = l
	logLevel = level
}

// watchConfig 設定檔變更時只熱套用 LOG.LEVEL；conf 建立後不再被改寫，其他區段需重啟
func watchConfig() {
	if !useFile {
		return
	}
	applied := *conf
	vp.OnConfigChange(func(in fsnotify.Event) {
		next := config.Default()
		if err := vp.Unmarshal(next); err != nil {
			logger.Warn("[Config] unmarshal on change failed", zap.String("file", in.Name), zap.Error(err))
			return
		}
		if err := config.Validate(next); err != nil {
			logger.Warn("[Config] ignore invalid change", zap.String("file", in.Name), zap.Error(err))
			return
		}
		if log.ApplyLevel(logLevel, next) {
			logger.Info("[Config] log level changed", zap.String("level", logLevel.String()))
		}
		if sections := config.RestartRequired(&applied, next); len(sections) > 0 {
			logger.Warn("[Config] changes take effect after restart", zap.Strings("sections", sections))
		}
		applied = *next
	})
	vp.WatchConfig()
}

func initConfig() {
	v := viper.NewWithOptions(viper.KeyDelimiter("__"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	setDefaults(v, reflect.ValueOf(*config.Default()))

	if envPath != "" {
		useFile = true
		if !filepath.IsAbs(envPath) {
			envPath = filepath.Join(rootPath, envPath)
		}
		fmt.Println("load .env config:", envPath)
		v.SetConfigFile(envPath)
		v.SetConfigType("env")
	} else if yamlPath != "" {
		useFile = true
		if !filepath.IsAbs(yamlPath) {
			yamlPath = filepath.Join(rootPath, "conf", yamlPath)
		}
		fmt.Println("load yaml config:", yamlPath)
		v.SetConfigFile(yamlPath)
		v.SetConfigType("yaml")
	} else {
		fmt.Println("No configuration file specified, using environment variables only.")
	}

	if useFile {
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Errorf("read config failed: %w", err))
		}
	}

	bindEnvs(v, reflect.TypeOf(config.Configuration{}))
	// 與 express 版本相同，未加前綴的 PORT 也可指定監聽埠
	_ = v.BindEnv("APP__PORT", "APP__PORT", "PORT")

	vp = v
	conf = config.Default()
	if err := v.Unmarshal(conf); err != nil {
		panic(fmt.Errorf("unmarshal config failed: %w", err))
	}
	if err := config.Validate(conf); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func bindEnvs(v *viper.Viper, t reflect.Type, path ...string) {
	// 若遇到指標，取其 Elem
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			tag = field.Name
		}
		newPath := append(append([]string{}, path...), tag)
		if field.Type.Kind() == reflect.Struct || (field.Type.Kind() == reflect.Ptr && field.Type.Elem().Kind() == reflect.Struct) {
			bindEnvs(v, field.Type, newPath...)
		} else {
			_ = v.BindEnv(strings.Join(newPath, "__"))
		}
	}
}

// setDefaults 以 config.Default() 的值作為 viper 預設值，key 規則同 bindEnvs
func setDefaults(v *viper.Viper, val reflect.Value, path ...string) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			tag = field.Name
		}
		newPath := append(append([]string{}, path...), tag)
		fv := val.Field(i)
		if fv.Kind() == reflect.Struct {
			setDefaults(v, fv, newPath...)
			continue
		}
		if fv.IsZero() {
			continue
		}
		v.SetDefault(strings.Join(newPath, "__"), fv.Interface())
	}
}
