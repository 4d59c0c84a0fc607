package engine

// 한국어 샘플 데이터 (이름/주소/전화번호용)
var (
	LastNames  = []string{"김", "이", "박", "최", "정", "강", "조", "윤", "장", "임", "한", "오", "서", "신", "권", "황", "안", "송", "류", "전"}
	FirstNames = []string{"민준", "서준", "도윤", "예준", "시우", "하준", "지호", "주원", "지우", "준우", "서연", "서윤", "서현", "하은", "민서", "지유", "윤서", "채원"}
	Cities     = []string{"서울", "부산", "대구", "인천", "광주", "대전", "울산", "수원", "성남", "고양", "용인", "부천", "안산", "청주", "전주", "천안", "화성", "안양", "김해"}
	Districts  = []string{"강남구", "서초구", "송파구", "종로구", "마포구", "영등포구", "관악구", "동작구", "강동구", "노원구", "은평구", "서대문구", "성북구"}
	Streets    = []string{"테헤란로", "강남대로", "송파대로", "올림픽로", "한강대로", "세종대로", "을지로", "퇴계로", "충무로", "종로", "신촌로", "양화로"}
)

// EmailDomains keeps generated addresses off real mail hosts.
var EmailDomains = []string{"example.com", "example.org", "example.net", "test.kr"}

// wordPairs is an English/Korean vocabulary for titles and free text. It is a
// slice, not a map, so seeded generation walks it in a fixed order.
var wordPairs = [][2]string{
	// 명사
	{"Action", "액션"}, {"Adventure", "모험"}, {"Animation", "애니메이션"},
	{"Classics", "고전"}, {"Comedy", "코미디"}, {"Documentary", "다큐멘터리"},
	{"Drama", "드라마"}, {"Family", "가족"}, {"Horror", "공포"},
	{"Music", "음악"}, {"Sports", "스포츠"}, {"Travel", "여행"},
	{"Story", "이야기"}, {"Life", "인생"}, {"Time", "시간"},
	{"World", "세계"}, {"Hero", "영웅"}, {"Friend", "친구"},
	{"Love", "사랑"}, {"Peace", "평화"}, {"Hope", "희망"},
	{"Dream", "꿈"}, {"Memory", "기억"}, {"Secret", "비밀"},
	{"Legend", "전설"}, {"Mystery", "미스터리"}, {"Future", "미래"},
	{"Journey", "여정"}, {"Freedom", "자유"}, {"Promise", "약속"},

	// 형용사
	{"Beautiful", "아름다운"}, {"Great", "위대한"}, {"Happy", "행복한"},
	{"Dark", "어두운"}, {"Lost", "잃어버린"}, {"Last", "마지막"},
	{"Golden", "황금빛"}, {"Silent", "조용한"}, {"Fast", "빠른"},
	{"Brave", "용감한"}, {"Wise", "현명한"}, {"Ancient", "고대의"},
	{"Modern", "현대의"}, {"Epic", "서사적인"}, {"Perfect", "완벽한"},

	// 동사
	{"Running", "달리는"}, {"Flying", "날아가는"}, {"Rising", "떠오르는"},
	{"Dreaming", "꿈꾸는"}, {"Searching", "찾는"}, {"Returning", "돌아오는"},

	// 장소
	{"City", "도시"}, {"Village", "시골"}, {"School", "학교"},
	{"Sea", "바다"}, {"River", "강"}, {"Mountain", "산"},
	{"Sky", "하늘"}, {"Star", "별"}, {"Forest", "숲"},
	{"Island", "섬"}, {"Garden", "정원"}, {"Bridge", "다리"},
}

var engToKor = func() map[string]string {
	m := make(map[string]string, len(wordPairs))
	for _, p := range wordPairs {
		m[p[0]] = p[1]
	}
	return m
}()
