/*

Gomc draws samples from a built-in target density using Markov chain
Monte Carlo. It supports a fixed-scale Metropolis-Hastings sampler, an
adaptive Metropolis sampler and differential evolution (DE-MC) with
multiple chains.

The basic usage of gomc looks like this:

	gomc normal

, this will sample a 2-dimensional standard normal with the
Metropolis-Hastings sampler.

You can change the target and the method:

	gomc -method demc -chains 8 bimodal

The above samples a bimodal mixture with eight DE-MC chains.

To see all the options run:

	gomc -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gomc")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("gomc", "MCMC sampler for unnormalized target densities").Version(version)

	// target
	targetName = app.Arg("target", "target distribution "+
		"(normal, corr, bimodal, rosenbrock)").Required().String()
	dim = app.Flag("dim", "dimensionality of the target "+
		"(normal only; other targets have a fixed dimension)").Default("2").Int()

	// sampler parameters
	method = app.Flag("method", "sampling method to use "+
		"(mh: Metropolis-Hastings with a fixed proposal scale, "+
		"am: adaptive Metropolis, "+
		"demc: differential evolution with multiple chains"+
		")").Default("mh").String()
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	accept     = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	scale      = app.Flag("scale", "proposal standard deviation for mh").Default("1").Float64()
	burn       = app.Flag("burn", "burn-in discarded from estimates (20% by default)").Default("-1").Int()

	// adaptive mcmc parameters
	skip     = app.Flag("skip", "number of iterations before adaptation starts").Default("100").Int()
	interval = app.Flag("interval", "number of iterations between covariance updates").Default("50").Int()
	epsilon  = app.Flag("epsilon", "diagonal covariance regularization").Default("1e-6").Float64()

	// demc parameters
	nchains    = app.Flag("chains", "number of DE-MC chains").Default("6").Int()
	gamma      = app.Flag("gamma", "differential scale factor (2.38/sqrt(2d) by default)").Default("0").Float64()
	jitter     = app.Flag("jitter", "standard deviation of DE-MC jitter").Default("1e-6").Float64()
	inflate    = app.Flag("inflate", "spread of random initial chain positions").Default("10").Float64()
	sequential = app.Flag("sequential", "update DE-MC chains sequentially instead of in lockstep").Bool()
	diagPeriod = app.Flag("diag", "record convergence diagnostics every N generations").Default("100").Int()

	// technical
	nThreads = app.Flag("nt", "number of threads to use").Int()
	seed     = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// input/output
	outLogF     = app.Flag("log", "write log to a file").String()
	outF        = app.Flag("out", "write sampling trajectory to a file").String()
	checkpointF = app.Flag("checkpoint", "checkpoint database file name (enables warm start)").String()
	checkpointT = app.Flag("cseconds", "time between checkpoints in seconds").Default("30").Float64()
	logLevel    = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "gomc")
	logging.SetLevel(level, "mcmc")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	if *nThreads > 0 {
		runtime.GOMAXPROCS(*nThreads)
	}
	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *burn < 0 {
		*burn = *iterations / 5
	}

	target, err := getTargetFromString(*targetName, *dim)
	if err != nil {
		log.Fatal(err)
	}

	startTime := time.Now()

	s := newSamplerSettings(target)
	var summary *RunSummary
	switch *method {
	case "mh", "am":
		summary, err = runSingle(s)
	case "demc":
		summary, err = runEnsemble(s)
	default:
		err = fmt.Errorf("Unknown sampling method: %s", *method)
	}
	if err != nil {
		log.Fatal(err)
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)

	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed
	summary.NThreads = effectiveNThreads
	summary.TotalTime = deltaT.Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}

// printEstimates logs posterior estimates the way samplers report final
// parameter values.
func printEstimates(mean, sd []float64) {
	for i := range mean {
		log.Noticef("x%d=%f (sd=%f)", i, mean[i], sd[i])
	}
}
