package logic

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hbulgarini/imbue/internal/database"
	"github.com/hbulgarini/imbue/internal/model"
)

func setupMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), database.Config())
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		page, size    int
		offset, limit int
	}{
		{0, 0, 0, defaultPageSize},
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{2, 1000, maxPageSize, maxPageSize},
		{-1, -5, 0, defaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := paginate(tt.page, tt.size)
		if offset != tt.offset || limit != tt.limit {
			t.Errorf("paginate(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.size, offset, limit, tt.offset, tt.limit)
		}
	}
}

func TestGetProjectNotFound(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectQuery(`SELECT \* FROM "project" WHERE "project"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := NewProjectLogic(db).GetProject(9)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestGetProjects(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "project" WHERE status = \$1`).
		WithArgs("approved").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "project" WHERE status = \$1 ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "raised_funds"}).
			AddRow(1, "relay", "approved", 600).
			AddRow(4, "bridge", "approved", 900))

	projects, total, err := NewProjectLogic(db).GetProjects(model.ProjectStatusApproved, 1, 10)
	if err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if total != 2 || len(projects) != 2 {
		t.Fatalf("total = %d, len = %d, want 2, 2", total, len(projects))
	}
	if projects[1].Name != "bridge" || projects[1].RaisedFunds != 900 {
		t.Errorf("second project = %+v", projects[1])
	}
	expectationsMet(t, mock)
}

func TestGetProjectMilestones(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectQuery(`SELECT \* FROM "project_milestone" WHERE project_id = \$1 ORDER BY milestone_key ASC`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"project_id", "milestone_key", "name", "percentage", "status", "round_key"}).
			AddRow(3, 0, "design", 60, "approved", 2).
			AddRow(3, 1, "launch", 40, "voting", 5))

	got, err := NewMilestoneLogic(db).GetProjectMilestones(3)
	if err != nil {
		t.Fatalf("GetProjectMilestones: %v", err)
	}
	want := []model.ProjectMilestoneModel{
		{ProjectId: 3, MilestoneKey: 0, Name: "design", Percentage: 60, Status: model.MilestoneStatusApproved, RoundKey: 2},
		{ProjectId: 3, MilestoneKey: 1, Name: "launch", Percentage: 40, Status: model.MilestoneStatusVoting, RoundKey: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("milestones mismatch (-want +got):\n%s", diff)
	}
	expectationsMet(t, mock)
}

func TestUpdateMilestoneStatusMissing(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "project_milestone" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewMilestoneLogic(db).UpdateMilestoneStatus(3, 7, model.MilestoneStatusVoting, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestCreateMilestonesEmpty(t *testing.T) {
	db, mock := setupMock(t)
	if err := NewMilestoneLogic(db).CreateMilestones(nil); err != nil {
		t.Fatalf("CreateMilestones(nil): %v", err)
	}
	expectationsMet(t, mock)
}

func TestCreateContributeRecord(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "contribute_record" (.+) ON CONFLICT`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	record := &model.ContributeRecordModel{
		ProjectId: 3,
		Amount:    250,
		Currency:  "DOT",
		Address:   "0x00000000000000000000000000000000000000b0",
		EventId:   "ev-1",
		BlockNum:  5,
	}
	if err := NewContributeRecordLogic(db).CreateContributeRecord(record); err != nil {
		t.Fatalf("CreateContributeRecord: %v", err)
	}
	expectationsMet(t, mock)
}

func TestContributeRecordValidation(t *testing.T) {
	db, mock := setupMock(t)
	l := NewContributeRecordLogic(db)

	tests := []struct {
		name   string
		record model.ContributeRecordModel
	}{
		{"zero amount", model.ContributeRecordModel{Address: "0xb0", EventId: "ev"}},
		{"no address", model.ContributeRecordModel{Amount: 1, EventId: "ev"}},
		{"no event", model.ContributeRecordModel{Amount: 1, Address: "0xb0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.CreateContributeRecord(&tt.record); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	expectationsMet(t, mock)
}

func TestCreateRefundRecordsSkipsProcessedEvent(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "refund_record" WHERE event_id = \$1`).
		WithArgs("ev-9").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	records := []model.RefundRecordModel{
		{ProjectId: 1, Amount: 240, Currency: "DOT", Address: "0xb0", EventId: "ev-9", RefundReason: model.RefundReasonAdmin},
		{ProjectId: 1, Amount: 160, Currency: "DOT", Address: "0xc0", EventId: "ev-9", RefundReason: model.RefundReasonAdmin},
	}
	if err := NewRefundRecordLogic(db).CreateRefundRecords(records); err != nil {
		t.Fatalf("CreateRefundRecords: %v", err)
	}
	expectationsMet(t, mock)
}

func TestRefundRecordValidation(t *testing.T) {
	db, mock := setupMock(t)
	l := NewRefundRecordLogic(db)

	mixed := []model.RefundRecordModel{
		{Amount: 1, Address: "0xb0", EventId: "a", RefundReason: model.RefundReasonAdmin},
		{Amount: 1, Address: "0xc0", EventId: "b", RefundReason: model.RefundReasonAdmin},
	}
	if err := l.CreateRefundRecords(mixed); err == nil {
		t.Error("expected error for records from different events")
	}

	unknown := []model.RefundRecordModel{{Amount: 1, Address: "0xb0", EventId: "a", RefundReason: "expired"}}
	if err := l.CreateRefundRecords(unknown); err == nil {
		t.Error("expected error for unknown refund reason")
	}
	expectationsMet(t, mock)
}

func TestWithdrawalRecordValidation(t *testing.T) {
	db, mock := setupMock(t)
	l := NewWithdrawalRecordLogic(db)

	err := l.CreateWithdrawalRecord(&model.WithdrawalRecordModel{
		GrossAmount:   600,
		PlatformFee:   30,
		CreatorAmount: 560,
		EventId:       "ev",
	})
	if err == nil {
		t.Error("expected error when fee and net do not add up")
	}
	expectationsMet(t, mock)
}

func TestGetLastProcessedBlockEmpty(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectQuery(`SELECT \* FROM "event" ORDER BY block_num DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "block_num"}))

	block, err := NewEventLogic(db).GetLastProcessedBlock()
	if err != nil {
		t.Fatalf("GetLastProcessedBlock: %v", err)
	}
	if block != 0 {
		t.Errorf("block = %d, want 0", block)
	}
	expectationsMet(t, mock)
}

func TestGetEventStatistics(t *testing.T) {
	db, mock := setupMock(t)
	mock.ExpectQuery(`SELECT event_type, COUNT\(\*\) AS count FROM "event"`).
		WillReturnRows(sqlmock.NewRows([]string{"event_type", "count"}).
			AddRow("ContributeSucceeded", 4).
			AddRow("ProjectCreated", 1))

	stats, err := NewEventLogic(db).GetEventStatistics(nil)
	if err != nil {
		t.Fatalf("GetEventStatistics: %v", err)
	}
	want := map[string]int64{"ContributeSucceeded": 4, "ProjectCreated": 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	expectationsMet(t, mock)
}
