// Package workload feeds simulations with jobs read from trace files in
// the Standard Workload Format (SWF) used by the parallel workloads
// archive.
package workload

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/servsim/servsim/job"
	"github.com/servsim/servsim/sim"
	"github.com/servsim/servsim/stats"
)

// SWF column indices for the fields the reader consumes.
const (
	colJobID      = 0
	colSubmitTime = 1
	colDuration   = 3
	colNumRes     = 4
)

// SWFReader is an entity that reads a trace at simulation start and
// submits one job per usable line to the target server, at the submit
// times recorded in the trace. Finished jobs come back to the reader,
// which records wait and response times.
type SWFReader struct {
	sim.EntityBase

	path     string
	serverID int
	delim    string
	stat     stats.Receiver

	submitted int
	received  int
	jobs      []*job.Job
	readErr   error
}

// NewSWFReader creates a reader for the trace at path, submitting to
// the server with the given entity id. A nil receiver disables metrics.
func NewSWFReader(name, path string, serverID int, stat stats.Receiver) *SWFReader {
	if stat == nil {
		stat = stats.NilReceiver()
	}
	return &SWFReader{
		EntityBase: sim.NewEntityBase(name),
		path:       path,
		serverID:   serverID,
		stat:       stat.Scope("workload"),
	}
}

// SetDelimiter sets the field delimiter. By default fields are split on
// any run of whitespace.
func (r *SWFReader) SetDelimiter(delim string) {
	r.delim = delim
}

// Err returns the error that stopped trace reading, if any.
func (r *SWFReader) Err() error {
	return r.readErr
}

// Submitted returns how many jobs the trace produced.
func (r *SWFReader) Submitted() int {
	return r.submitted
}

// Received returns how many jobs have come back so far.
func (r *SWFReader) Received() int {
	return r.received
}

// Jobs returns the submitted jobs, in trace order.
func (r *SWFReader) Jobs() []*job.Job {
	return r.jobs
}

// OnStart reads the trace and schedules the arrival of every job.
func (r *SWFReader) OnStart() {
	f, err := os.Open(r.path)
	if err != nil {
		r.readErr = errors.Wrapf(err, "opening workload trace %s", r.path)
		log.Errorf("%s: %v", r.Name(), r.readErr)
		return
	}
	defer f.Close()

	now := r.CurrentTime()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		j, err := r.parseLine(scanner.Text())
		if err != nil {
			log.Warnf("%s: skipping line %d: %v", r.Name(), lineNo, err)
			continue
		}
		if j == nil {
			continue
		}

		delay := j.SubmitTime() - now
		if delay < 0 {
			delay = 0
		}
		// the server stamps the definitive submit time on arrival
		r.Send(r.serverID, delay, sim.TaskArrive, j)
		r.jobs = append(r.jobs, j)
		r.submitted++
	}
	if err := scanner.Err(); err != nil {
		r.readErr = errors.Wrapf(err, "reading workload trace %s", r.path)
		log.Errorf("%s: %v", r.Name(), r.readErr)
	}
	r.stat.Counter("jobsSubmitted").Inc(int64(r.submitted))
	log.Debugf("%s: submitted %d jobs from %s", r.Name(), r.submitted, r.path)
}

// Process records jobs coming back from the server.
func (r *SWFReader) Process(ev *sim.Event) {
	if ev.Type() != sim.ResultArrive {
		return
	}
	j, ok := ev.Content().(*job.Job)
	if !ok {
		log.Errorf("%s: invalid result payload %v", r.Name(), ev.Content())
		return
	}
	r.received++
	if j.Status() == job.StatusComplete {
		r.stat.Histogram("waitTime").Update(j.StartTime() - j.SubmitTime())
		r.stat.Histogram("responseTime").Update(j.FinishTime() - j.SubmitTime())
	}
}

// parseLine turns one trace line into a job. Comment and blank lines
// yield (nil, nil); jobs the trace recorded with a non-positive runtime
// are treated as cancelled and dropped.
func (r *SWFReader) parseLine(line string) (*job.Job, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return nil, nil
	}

	var fields []string
	if r.delim == "" {
		fields = strings.Fields(trimmed)
	} else {
		fields = strings.Split(trimmed, r.delim)
	}
	if len(fields) <= colNumRes {
		return nil, errors.Errorf("expected at least %d fields, got %d", colNumRes+1, len(fields))
	}

	id, err := strconv.Atoi(fields[colJobID])
	if err != nil {
		return nil, errors.Wrap(err, "job id")
	}
	submit, err := strconv.ParseInt(fields[colSubmitTime], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "submit time")
	}
	duration, err := strconv.ParseInt(fields[colDuration], 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "duration")
	}
	numRes, err := strconv.Atoi(fields[colNumRes])
	if err != nil {
		return nil, errors.Wrap(err, "number of resources")
	}

	if duration <= 0 {
		log.Tracef("%s: dropping job %d with runtime %d", r.Name(), id, duration)
		return nil, nil
	}
	if numRes <= 0 {
		numRes = 1
	}

	j := job.New(id, duration, numRes, 0)
	j.SetOwnerID(r.ID())
	// provisional stamp used to compute the arrival delay; the server
	// re-stamps the definitive submit time on arrival
	j.SetSubmitTime(submit)
	return j, nil
}
