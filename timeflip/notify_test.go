package timeflip_test

import (
	"context"
	"errors"
	"testing"

	"github.com/srg/timeflip/internal/testutils"
	"github.com/srg/timeflip/timeflip"
	"github.com/srg/timeflip/timeflip/profile"
	"github.com/stretchr/testify/suite"
)

type FacetStreamTestSuite struct {
	suite.Suite

	mock   *testutils.MockPeripheral
	client *timeflip.Client
	ctx    context.Context
}

func TestFacetStreamTestSuite(t *testing.T) {
	suite.Run(t, new(FacetStreamTestSuite))
}

func (suite *FacetStreamTestSuite) SetupTest() {
	suite.mock = testutils.NewMockPeripheral()
	suite.client = timeflip.NewClient(suite.mock, &timeflip.Options{Logger: quietLogger()})
	suite.ctx = context.Background()

	suite.Require().NoError(suite.client.Connect(suite.ctx))
	suite.Require().NoError(suite.client.Login(suite.ctx, profile.DefaultPassword))
}

func (suite *FacetStreamTestSuite) TestFacetStream() {
	// GOAL: Verify the facet notification stream: each pushed value is decoded
	// into a facet event and the reserved pause id is distinguishable from a
	// physical face
	//
	// TEST SCENARIO: Start stream → push facet 12 and the pause id 63 → handler
	// receives both events in order with Paused() set only for the sentinel

	var events []timeflip.FacetEvent
	err := suite.client.StartFacetStream(func(e timeflip.FacetEvent) {
		events = append(events, e)
	})

	suite.Require().NoError(err)
	suite.Assert().True(suite.client.Notifying(), "session MUST be notifying")

	suite.mock.Notify(profile.Facet, []byte{0x0c})
	suite.mock.Notify(profile.Facet, []byte{profile.PauseFacetID})

	suite.Require().Len(events, 2, "handler MUST receive every pushed notification")

	suite.Assert().Equal(uint8(12), events[0].Facet)
	suite.Assert().False(events[0].Paused(), "a physical face MUST NOT read as paused")

	suite.Assert().Equal(uint8(63), events[1].Facet)
	suite.Assert().True(events[1].Paused(), "the reserved id 63 MUST read as paused")
}

func (suite *FacetStreamTestSuite) TestStopFacetStream() {
	// GOAL: Verify stream teardown clears the notifying flag and releases the
	// subscription so later notifications are dropped

	var events []timeflip.FacetEvent
	suite.Require().NoError(suite.client.StartFacetStream(func(e timeflip.FacetEvent) {
		events = append(events, e)
	}))

	suite.Require().NoError(suite.client.StopFacetStream())

	suite.Assert().False(suite.client.Notifying(), "session MUST NOT be notifying")

	suite.mock.Notify(profile.Facet, []byte{0x03})
	suite.Assert().Empty(events, "no event may be delivered after the stream stops")
}

func (suite *FacetStreamTestSuite) TestSubscribeFailure() {
	// GOAL: Verify a transport subscribe failure propagates and leaves the
	// session out of the notifying state

	mock := testutils.NewMockPeripheral().WithSubscribeError(errors.New("cccd write rejected"))
	client := timeflip.NewClient(mock, &timeflip.Options{Logger: quietLogger()})
	suite.Require().NoError(client.Connect(suite.ctx))
	suite.Require().NoError(client.Login(suite.ctx, profile.DefaultPassword))

	err := client.StartFacetStream(func(timeflip.FacetEvent) {})

	suite.Assert().Error(err)
	suite.Assert().False(client.Notifying(), "session MUST NOT be notifying after a failed subscribe")
}
