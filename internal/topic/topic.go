package topic

import "math/rand"

// Provider 题库提供者：为新一局游戏挑选主题和秘密关键词。
// used 是本房间已经用过的关键词，避免同一房间重复出题。
type Provider interface {
	Pick(used []string) (topic, keyword string)
}

// Topic 一个主题及其候选关键词
type Topic struct {
	Name     string
	Keywords []string
}

// CorpusProvider 内置题库
type CorpusProvider struct {
	topics []Topic
}

// NewCorpusProvider 使用内置题库创建 Provider
func NewCorpusProvider() *CorpusProvider {
	return &CorpusProvider{topics: corpus}
}

// NewProviderWithTopics 使用自定义题库创建 Provider（测试用）
func NewProviderWithTopics(topics []Topic) *CorpusProvider {
	return &CorpusProvider{topics: topics}
}

// Pick 随机挑选一个主题和其中一个未用过的关键词。
// 题库耗尽时忽略 used，允许重复。
func (p *CorpusProvider) Pick(used []string) (string, string) {
	usedSet := make(map[string]bool, len(used))
	for _, k := range used {
		usedSet[k] = true
	}

	// 收集还有未用关键词的主题
	type candidate struct {
		topic    string
		keywords []string
	}
	var candidates []candidate
	for _, t := range p.topics {
		var fresh []string
		for _, k := range t.Keywords {
			if !usedSet[k] {
				fresh = append(fresh, k)
			}
		}
		if len(fresh) > 0 {
			candidates = append(candidates, candidate{t.Name, fresh})
		}
	}

	// 全部用完，整库重新开放
	if len(candidates) == 0 {
		for _, t := range p.topics {
			candidates = append(candidates, candidate{t.Name, t.Keywords})
		}
	}

	c := candidates[rand.Intn(len(candidates))]
	return c.topic, c.keywords[rand.Intn(len(c.keywords))]
}

// corpus 内置题库（越南语原版）
var corpus = []Topic{
	{
		Name:     "Quà vặt",
		Keywords: []string{"Bánh tráng trộn", "Nem chua rán", "Cá viên chiên", "Bắp xào", "Bánh tráng nướng", "Trứng vịt lộn", "Xoài lắc", "Bò bía", "Kem ống", "Kẹo bông"},
	},
	{
		Name:     "Món nước",
		Keywords: []string{"Phở bò", "Bún chả", "Bún riêu", "Hủ tiếu", "Cháo lòng", "Mì tôm", "Bún bò", "Mì quảng", "Bánh đa cua", "Bún mắm"},
	},
	{
		Name:     "Nước giải khát",
		Keywords: []string{"Cà phê sữa", "Trà đá", "Nước mía", "Trà chanh", "Nước dừa", "Sinh tố", "Trà tắc", "Sữa đậu nành", "Bia hơi", "Nước cam"},
	},
	{
		Name:     "Đồ công nghệ",
		Keywords: []string{"Điện thoại", "Máy tính bảng", "Máy ảnh", "Đồng hồ", "Máy chơi game", "Sạc dự phòng", "Loa thùng", "Máy đọc sách", "Tai nghe", "Chuột máy tính"},
	},
	{
		Name:     "Khu vui chơi",
		Keywords: []string{"Rạp chiếu phim", "Quán cà phê", "Phố đi bộ", "Công viên", "Bãi biển", "Chợ đêm", "Trung tâm thương mại", "Sân vận động", "Nhà hát", "Sở thú"},
	},
	{
		Name:     "Nghề nghiệp",
		Keywords: []string{"Giáo viên", "Bác sĩ", "Công an", "Lính cứu hỏa", "Bộ đội", "Bảo vệ", "Lao công", "Thủ thư", "Luật sư", "Thẩm phán"},
	},
	{
		Name:     "Thú cưng",
		Keywords: []string{"Con chó", "Con mèo", "Con thỏ", "Con cá vàng", "Con chim cảnh", "Con chuột lang", "Con rùa", "Con vẹt", "Con nhím", "Con sóc"},
	},
	{
		Name:     "Thời tiết",
		Keywords: []string{"Cầu vồng", "Sấm sét", "Mưa phùn", "Nắng", "Sương mù", "Bão", "Bình minh", "Hoàng hôn", "Thủy triều", "Nhật thực"},
	},
}
