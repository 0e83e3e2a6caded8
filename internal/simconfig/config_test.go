package simconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
)

func TestLoadFileParsesBasicScenario(t *testing.T) {
	s, err := LoadFile("./testdata/basicScenario.yaml")
	require.NoError(t, err)

	assert.Equal(t, "basic-omega", s.Name)
	assert.Equal(t, 1, s.Cell.NumMachines)
	assert.Equal(t, "sequence-numbers", s.Cell.ConflictMode)
	require.Len(t, s.OmegaSchedulers, 1)
	assert.Equal(t, "o1", s.OmegaSchedulers[0].Name)
	require.Len(t, s.Jobs, 1)
	assert.Equal(t, "o1", s.Jobs[0].SchedulerName)
	require.NotNil(t, s.Run.RunTime)
	assert.Equal(t, 100.0, *s.Run.RunTime)
}

func TestLoadPatternGlobsScenarioFiles(t *testing.T) {
	scenarios, err := LoadPattern("./testdata/*.yaml")
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "basic-omega", scenarios[0].Name)
}

func TestValidateRejectsUnknownConflictMode(t *testing.T) {
	s := Scenario{Cell: CellConfig{ConflictMode: "bogus", TransactionMode: "all-or-nothing"}}
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestValidateRejectsMesosWithSequenceNumbers(t *testing.T) {
	s := Scenario{
		Cell:  CellConfig{ConflictMode: "sequence-numbers", TransactionMode: "incremental"},
		Mesos: &MesosConfig{},
	}
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestValidateRejectsJobWithUnknownScheduler(t *testing.T) {
	s := Scenario{
		Cell: CellConfig{ConflictMode: "resource-fit", TransactionMode: "incremental"},
		Jobs: []JobSpec{{SchedulerName: "ghost", Workload: "w", NumTasks: 1}},
	}
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestBuildAndRunEndToEnd(t *testing.T) {
	s, err := LoadFile("./testdata/basicScenario.yaml")
	require.NoError(t, err)

	built, err := Build(simcontext.Background(), &s)
	require.NoError(t, err)

	status, err := built.Sim.Run(s.Run.RunTime, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	require.Len(t, built.Jobs, 1)
	assert.Equal(t, uint32(0), built.Jobs[0].UnscheduledTasks)
	assert.Equal(t, uint64(1), built.OmegaSchedulers["o1"].NumSuccessfulTransactions)
}
