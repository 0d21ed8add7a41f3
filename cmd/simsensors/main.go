// Package main loads a world file and steps it, running the sensor plugins attached to its models.
package main

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.viam.com/utils"
	"gopkg.in/natefinch/lumberjack.v2"

	// registers the built-in plugins.
	_ "go.viam.com/simsensors/components/sensor/fake"
	_ "go.viam.com/simsensors/components/sensor/ftsensor"
	"go.viam.com/simsensors/logging"
	"go.viam.com/simsensors/ros"
	"go.viam.com/simsensors/sim"
)

var logger = logging.NewLogger("simsensors")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"0,required,usage=world file"`
	Iterations int    `flag:"iterations,usage=world steps to run (0 runs until interrupted)"`
	Echo       string `flag:"echo,usage=topic to subscribe to and log"`
	Debug      bool   `flag:"debug"`
	LogFile    string `flag:"log-file,usage=also write logs to this rotated file"`
}

func mainWithArgs(ctx context.Context, args []string, logger logging.Logger) (err error) {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Iterations < 0 {
		return errors.Errorf("iterations must be non-negative, got %d", argsParsed.Iterations)
	}

	if argsParsed.Debug {
		logging.GlobalLogLevel.SetLevel(zap.DebugLevel)
		defer logging.GlobalLogLevel.SetLevel(zap.InfoLevel)
	}
	if argsParsed.LogFile != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   argsParsed.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
		}
		defer func() {
			err = multierr.Combine(err, fileLogger.Close())
		}()
		logger.AddAppender(logging.NewWriterAppender(fileLogger))
	}

	cfg, err := sim.ReadConfig(argsParsed.ConfigFile)
	if err != nil {
		return err
	}
	return runWorld(ctx, cfg, argsParsed, logger)
}

func runWorld(ctx context.Context, cfg *sim.Config, argsParsed Arguments, logger logging.Logger) (err error) {
	server, err := sim.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, server.Close(context.Background()))
	}()

	if argsParsed.Echo != "" {
		stop, err := echoTopic(server.Master(), argsParsed.Echo, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	utils.ContextMainReadyFunc(ctx)()
	err = server.Run(ctx, uint64(argsParsed.Iterations))
	logger.Infow("world stopped", "iterations", server.Iterations())
	return utils.FilterOutError(err, context.Canceled)
}

func echoTopic(master *ros.Master, topic string, logger logging.Logger) (func(), error) {
	if master == nil {
		return nil, errors.Errorf("cannot echo %q: world file has no ros section", topic)
	}
	node, err := ros.NewNodeHandle(master, "/")
	if err != nil {
		return nil, err
	}
	if _, err := node.Subscribe(topic, 10, func(msg ros.Message) {
		logger.Infow("received", "topic", node.ResolveName(topic), "type", msg.Type(), "message", msg)
	}); err != nil {
		node.Shutdown()
		return nil, err
	}
	return node.Shutdown, nil
}
