package meetings

import "testing"

func TestSectionOrder(t *testing.T) {
	// current_section chỉ được tiến theo đúng chuỗi này
	want := []string{
		SectionNotStarted,
		SectionCheckin,
		SectionLightning,
		SectionCurriculum,
		SectionClosing,
		SectionCompleted,
	}
	cur := SectionNotStarted
	for i := 1; i < len(want); i++ {
		next, ok := NextSection(cur)
		if !ok {
			t.Fatalf("NextSection(%s) phải có section kế", cur)
		}
		if next != want[i] {
			t.Fatalf("NextSection(%s) = %s, want %s", cur, next, want[i])
		}
		cur = next
	}

	if _, ok := NextSection(SectionCompleted); ok {
		t.Error("completed là section cuối, không có section kế")
	}
	if _, ok := NextSection("khong_ton_tai"); ok {
		t.Error("section lạ không có section kế")
	}
}

func TestSectionIndex(t *testing.T) {
	if SectionIndex(SectionCheckin) >= SectionIndex(SectionCurriculum) {
		t.Error("checkin phải đứng trước curriculum")
	}
	if SectionIndex("xyz") != -1 {
		t.Error("section lạ phải trả -1")
	}
}
