package cgraph_go

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dispatchLog records what the commands of testRegistry were asked to do.
type dispatchLog struct {
	created  []string
	rendered []string
}

func testRegistry(log *dispatchLog) *Registry {
	params := Params{
		{Flag: "id", NumValues: 1},
		{Flag: "v", NumValues: 1},
		{Flag: "xy", NumValues: 2},
	}
	record := func(name string) CreateInstanceFunc {
		return func(ctx GraphicsContext, args Args) (*Instance, error) {
			desc := (&Command{Name: name, Args: args}).String()
			log.created = append(log.created, desc)
			inst := &Instance{Name: args.First("id")}
			inst.Bindings = Bindings{"v": args.First("v")}
			inst.Render = func() { log.rendered = append(log.rendered, desc) }
			return inst, nil
		}
	}
	r := NewRegistry()
	for _, name := range []string{"init", "cmd", "other"} {
		r.Register(&CommandDef{Name: name, Params: params, CreateInstance: record(name)})
	}
	r.Register(&CommandDef{Name: "boom", CreateInstance: func(GraphicsContext, Args) (*Instance, error) {
		panic("boom")
	}})
	r.Register(&CommandDef{Name: "none", CreateInstance: func(GraphicsContext, Args) (*Instance, error) {
		return nil, nil
	}})
	r.Register(&CommandDef{Name: "fail", CreateInstance: func(GraphicsContext, Args) (*Instance, error) {
		return nil, errors.New("bad")
	}})
	return r
}

type dispatchFixture struct {
	log          *dispatchLog
	status       *recordingStatus
	explanations *Explanations
	dispatcher   *Dispatcher
}

func newDispatchFixture() *dispatchFixture {
	ret := dispatchFixture{}
	ret.log = &dispatchLog{}
	ret.status = &recordingStatus{}
	ret.explanations = NewExplanations()
	ret.dispatcher = NewDispatcher(testRegistry(ret.log), NewExprEvaluator(nil, ret.status), ret.status)
	ret.dispatcher.SetExplanations(ret.explanations)
	return &ret
}

func (this *dispatchFixture) explained(item string) []string {
	var out []string
	this.explanations.LookupAndAppend(item, &out)
	return out
}

func TestDispatcherCreatesInstances(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty document still initializes", "", []string{"init"}},
		{"init synthesized first", "cmd v 1\nother v 2", []string{"init", "cmd v 1", "other v 2"}},
		{"explicit init", "init v 9\ncmd v 1", []string{"init v 9", "cmd v 1"}},
		{"later init ignored", "init v 9\ncmd v 1\ninit v 2", []string{"init v 9", "cmd v 1"}},
		{"init after a command ignored", "cmd v 1\ninit v 2", []string{"init", "cmd v 1"}},
		{"continuation merges", "cmd id a v 1\n. v 2 xy 3 4", []string{"init", "cmd id a v 2 xy 3 4"}},
		{"continuation keeps id", "cmd id a\n. id b v 1", []string{"init", "cmd id a v 1"}},
		{"continuation adds id", "cmd v 1\n. id b", []string{"init", "cmd id b v 1"}},
		{"continuation across a blank line", "cmd v 1\n  \n. v 2", []string{"init", "cmd v 2"}},
		{"continuation without command dropped", ". v 1\ncmd v 2", []string{"init", "cmd v 2"}},
		{"unknown command ignored", "cmdd v 1\ncmd v 2", []string{"init", "cmd v 2"}},
		{"unknown flags dropped", "cmd q v 1 xy 3", []string{"init", "cmd v 1"}},
		{"groups are single arguments", "cmd v (a b)", []string{"init", "cmd v (a b)"}},
		{"group before the name is ignored", "(x) cmd v 1", []string{"init", "cmd v 1"}},
		{"boundaries", "cmd v 1;cmd v 2\r\ncmd v 3", []string{"init", "cmd v 1", "cmd v 2", "cmd v 3"}},
		{"panicking command skipped", "boom\ncmd v 1", []string{"init", "cmd v 1"}},
		{"failing command skipped", "fail\ncmd v 1", []string{"init", "cmd v 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture()
			f.dispatcher.ProcessInput(tt.input, nil)
			assert.Equal(t, tt.want, f.log.created)
			assert.Equal(t, tt.want, f.log.rendered)
			assert.Equal(t, len(tt.want), f.dispatcher.Instances())
		})
	}
}

func TestDispatcherRendersAfterWalk(t *testing.T) {
	f := newDispatchFixture()
	var renderedAtCreate []int
	f.dispatcher.registry_.Register(&CommandDef{Name: "probe", CreateInstance: func(GraphicsContext, Args) (*Instance, error) {
		renderedAtCreate = append(renderedAtCreate, len(f.log.rendered))
		return &Instance{Render: func() {}}, nil
	}})
	f.dispatcher.ProcessInput("cmd v 1\nprobe\ncmd v 2\nprobe", nil)
	assert.Equal(t, []int{0, 0}, renderedAtCreate)
	assert.Equal(t, []string{"init", "cmd v 1", "cmd v 2"}, f.log.rendered)
}

func TestDispatcherContinuation(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput("cmd id a v 1\n. v 2 id b", nil)
	cmds := f.dispatcher.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "cmd", cmds[0].Name)
	assert.Equal(t, Args{"id": {"a"}, "v": {"2"}}, cmds[0].Args)
	assert.Equal(t, []string{"id", "a", "v", "1", "v", "2", "id", "b"}, cmds[0].Raw)
	assert.Equal(t, []string{"init", "cmd"}, f.status.resolved)
	assert.Equal(t, 2, f.status.instances)
}

func TestDispatcherExplains(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput(". v 1\ncmdd v 1\ncmd q v 1\nnone\ninit\nfail", nil)

	assert.Equal(t, []string{"continuation without a preceding command dropped"}, f.explained("."))
	assert.Equal(t, []string{"unknown command 'cmdd', did you mean 'cmd'?"}, f.explained("cmdd"))
	assert.Equal(t, []string{"ignored arguments: q"}, f.explained("cmd"))
	assert.Equal(t, []string{"'none' has no visible effect"}, f.explained("none"))
	assert.Contains(t, f.explained("init"), "init after the first command ignored")
	assert.Contains(t, f.explained("init"), "init synthesized with default arguments")
	assert.Equal(t, []string{"bad"}, f.explained("fail"))

	assert.Equal(t, []string{"cmdd", "init", "cmd", "none", "init", "fail"}, f.status.resolved)
	assert.Equal(t, []string{"fail: bad"}, f.status.warnings)
}

func TestDispatcherRecoversFromPanic(t *testing.T) {
	f := newDispatchFixture()
	assert.NotPanics(t, func() { f.dispatcher.ProcessInput("boom\ncmd", nil) })
	require.Len(t, f.status.warnings, 1)
	assert.Contains(t, f.status.warnings[0], ErrCreateInstance.Error())
	assert.Contains(t, f.status.warnings[0], "boom")
}

func TestDispatcherBindingsFollowDocumentOrder(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput("cmd v {=b.v}\ncmd id a v 1\n. v 5\ncmd v {=a.v}\ncmd id b v 2", nil)
	assert.Equal(t, []string{"init", "cmd", "cmd id a v 5", "cmd v 5", "cmd id b v 2"}, f.log.created)
	// b is not bound yet when the first script runs.
	require.Len(t, f.status.warnings, 1)
	assert.Contains(t, f.status.warnings[0], "=b.v")
	assert.Equal(t, 2, f.dispatcher.Scripts())
}

func TestDispatcherScriptLedLineFlushesPending(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput("cmd id a v 1\n{=\"cmd v \" + a.v}", nil)
	assert.Equal(t, []string{"init", "cmd id a v 1", "cmd v 1"}, f.log.created)
	assert.Empty(t, f.status.warnings)
}

func TestDispatcherScriptLedContinuationIsDropped(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput("cmd v 1\n{=\". v 2\"}", nil)
	assert.Equal(t, []string{"init", "cmd v 1"}, f.log.created)
	assert.Equal(t, []string{"continuation without a preceding command dropped"}, f.explained("."))
}

func TestDispatcherScriptOutputSplitsCommands(t *testing.T) {
	f := newDispatchFixture()
	f.dispatcher.ProcessInput("cmd v {=\"1;cmd v 2\"}", nil)
	assert.Equal(t, []string{"init", "cmd v 1", "cmd v 2"}, f.log.created)
}

func TestDispatcherDefaultsToQuietStatus(t *testing.T) {
	log := &dispatchLog{}
	d := NewDispatcher(testRegistry(log), NewExprEvaluator(nil, nil), nil)
	assert.NotPanics(t, func() { d.ProcessInput("fail\ncmd v 1", nil) })
	assert.Equal(t, []string{"init", "cmd v 1"}, log.created)
}
