package test

import (
	"go.uber.org/mock/gomock"
	"timeline_station/test/mocks"
)

// StubTexts makes every snippet render as its id followed by its values, one per line.
func StubTexts(mockTexts *mocks.MockITexts) {
	mockTexts.EXPECT().Get(gomock.Any()).
		DoAndReturn(func(id string) string { return id }).AnyTimes()
	mockTexts.EXPECT().WithVals(gomock.Any(), gomock.Any()).
		DoAndReturn(func(id string, vals map[string]string) string {
			return DummyTextWithVals(id, vals)
		}).AnyTimes()
}

func DummyTextWithVals(id string, vals map[string]string) string {
	res := id
	for k, v := range vals {
		res += "\n" + k + "\t" + v
	}
	return res
}

// StubMetrics accepts any metric. Fetch and request observers are mocks that accept any Finish.
func StubMetrics(ctrl *gomock.Controller, mockMetrics *mocks.MockIMetrics) {
	mockMetrics.EXPECT().StartFetch().DoAndReturn(func() *mocks.MockIFetchObserver {
		fo := mocks.NewMockIFetchObserver(ctrl)
		fo.EXPECT().Finish(gomock.Any()).AnyTimes()
		return fo
	}).AnyTimes()
	mockMetrics.EXPECT().StartWebRequestIn(gomock.Any()).DoAndReturn(func(string) *mocks.MockIRequestObserver {
		ro := mocks.NewMockIRequestObserver(ctrl)
		ro.EXPECT().Finish().AnyTimes()
		return ro
	}).AnyTimes()
	mockMetrics.EXPECT().InFlight(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().Queued(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().NetworkActive(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().ItemsMerged(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().GapOpened().AnyTimes()
	mockMetrics.EXPECT().UploadFinished(gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().ServiceStarted().AnyTimes()
}
